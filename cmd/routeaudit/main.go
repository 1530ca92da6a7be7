// Package main provides the routeaudit CLI.
//
// routeaudit reads an application's route table, issues one synthetic request per
// route against a running instance, and reports routes that resolve to no handler.
//
// Usage:
//
//	routeaudit audit --routes routes.txt --target http://localhost:3000
//	routeaudit routes --routes routes.txt
//
// See --help for all available options.
package main

func main() {
	Execute()
}
