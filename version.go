package espalier

// Version is the current release of the espalier module.
const Version = "0.1.0"
