// Package main provides the entry point for the pricepivot CLI.
//
// pricepivot collects product listings from marketplace catalog pages,
// deduplicates them and computes cross-source price comparisons.
//
// Usage:
//
//	pricepivot collect --category dog-food --source wildberries --query "сухой корм для таксы"
//	pricepivot pivot --category dog-food --source wildberries
//
// See --help for all available options.
package main

func main() {
	Execute()
}
