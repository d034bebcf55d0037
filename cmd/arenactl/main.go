// Command arenactl runs YAML allocation scenarios against the arenakit
// allocator and reports the resulting fragmentation.
package main

func main() {
	execute()
}
