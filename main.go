/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import "chatflow/cmd"

func main() {
	cmd.Execute()
}
