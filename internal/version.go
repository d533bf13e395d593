package internal

// Version is the application version
const Version = "0.3.0"
