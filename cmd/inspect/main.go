// Command inspect prints the objects and attributes stored in agent
// archives.
//
// Usage:
//
//	inspect [--load] [--verbose] archive.zip [archive.zip ...]
package main

import (
	"os"

	"github.com/sirupsen/logrus"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
