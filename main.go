/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/killallgit/highlight-api/cmd"

func main() {
	cmd.Execute()
}
