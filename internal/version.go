package internal

// Version is the flashgen release version
const Version = "0.3.0"
