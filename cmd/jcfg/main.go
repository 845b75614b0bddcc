// Package main implements the jcfg CLI.
// It builds control flow graphs for the methods of Java source files and
// writes them as text, JSON or Graphviz DOT.
package main

import (
	"os"

	"github.com/l3aro/go-java-cfg/cmd/jcfg/commands"
)

var (
	version   = "dev"
	buildTime = ""
)

func main() {
	root := commands.NewRootCmd(version, buildTime)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
