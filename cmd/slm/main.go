package main

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

// slm is a short alias: `slm next add-login` runs `specloom tasks next add-login`.
// `slm config ...` is passed through unchanged.
func main() {
	bin, err := exec.LookPath("specloom")
	if err != nil {
		fmt.Fprintln(os.Stderr, "slm: specloom not found on PATH")
		os.Exit(1)
	}
	if err := syscall.Exec(bin, append([]string{"specloom"}, expand(os.Args[1:])...), os.Environ()); err != nil {
		fmt.Fprintf(os.Stderr, "slm: %v\n", err)
		os.Exit(1)
	}
}

func expand(args []string) []string {
	if len(args) > 0 {
		switch args[0] {
		case "tasks", "config", "help", "completion", "-h", "--help":
			return args
		}
	}
	return append([]string{"tasks"}, args...)
}
