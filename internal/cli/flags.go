package cli

// Flags holds all command-line flag values
type Flags struct {
	// Global flags
	CfgFile      string
	Provider     string
	Model        string
	StoreBackend string
	StorePath    string
	Verbose      bool
	Archive      bool
	ListModels   bool

	// sync
	Words    string
	Snapshot string
	Watch    bool

	// add
	Pinyin         string
	Meaning        string
	Example        string
	ExampleMeaning string
	Fill           bool

	// import
	DryRun  bool
	Exclude string

	// list
	Format string

	// review
	Shuffle bool

	// export
	CSV      bool
	DeckName string
	Output   string
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		Provider:     "gemini",
		StoreBackend: "file",
		Format:       "text",
		DeckName:     "Chinese Vocabulary",
	}
}
