// Command driverupdater installs a driver set into an offline Windows image
// and repairs the registry references the new packages invalidate.
package main

func main() {
	execute()
}
