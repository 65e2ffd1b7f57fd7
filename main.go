/*
Copyright © 2026 3 Leaps <info@3leaps.net>
*/
package main

import "github.com/fulmenhq/cachestamp/cmd"

func main() {
	cmd.Execute()
}
