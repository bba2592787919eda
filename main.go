package main

import (
	"github.com/ValentinKolb/kLock/cmd"
)

func main() {
	cmd.Execute()
}
