// CargoLoad: container loading optimizer.
//
// Fills a container with a mix of box types using a genetic algorithm over a
// deepest-bottom-left-fill free-space manager, and ships the result as loading
// plans, box labels, manifests and an HTTP/queue service.
//
// Build:
//
//	go build -o cargoload ./cmd/cargoload
package main

import "github.com/piwi3910/CargoLoad/cmd/cargoload/commands"

func main() {
	commands.Execute()
}
