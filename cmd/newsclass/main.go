// Package main provides the entry point for the newsclass CLI.
//
// newsclass crawls news category listings into a labeled title dataset and
// serves category predictions over a chat bot.
//
// Usage:
//
//	newsclass scrape --output data/news.csv
//	newsclass bot
//	newsclass predict "text to classify"
//
// See --help for all available options.
package main

func main() {
	Execute()
}
