// Command bloc filters NDJSON records with filter, query and aggregate
// documents.
//
//	cat people.ndjson | bloc filter '{"age": {"$gte": 30}}'
//	bloc aggregate -i people.ndjson '[{"$match": {"tags": {"$size": 2}}}, {"$limit": 10}]'
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "bloc:", err)
		os.Exit(1)
	}
}
