// Command iapctl drives the IAP flash core against a simulated STM32G0 device
// kept in a directory, for exercising update flows without hardware.
package main

func main() {
	execute()
}
