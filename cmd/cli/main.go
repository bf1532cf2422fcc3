package main

import (
	"fmt"
	"os"
	"time"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

const (
	defaultBaseURL = "http://localhost:8080"
	defaultTimeout = 10 * time.Second
)
