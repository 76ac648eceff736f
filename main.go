package main

import "github.com/heytcass/gnome-at-a-glance/cmd"

func main() {
	cmd.Execute()
}
