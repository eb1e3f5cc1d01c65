// Package internal holds metadata shared across the application.
package internal

// Version is the application version, set at release time.
const Version = "0.3.1"
