// The main package for the mailsift executable.
package main

import (
	"github.com/mailsift/mailsift/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
