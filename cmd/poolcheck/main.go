// poolcheck exercises a poolkit pool with a configurable workload and
// verifies its allocation invariants.
package main

func main() {
	execute()
}
