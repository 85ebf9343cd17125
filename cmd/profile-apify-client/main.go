package main

import "ig_apify/functions"

func main() {
	functions.Main(functions.ProfileDispatch)
}
