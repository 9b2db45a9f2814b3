// Command podcast-dl downloads the episodes of a podcast RSS feed.
//
//	podcast-dl -u https://example.com/feed.xml -d ~/Podcasts/Example -a "Example Show"
//
// Settings are read from $XDG_CONFIG_HOME/podcast-downloader/config.toml
// when present; flags take precedence. The exit status is 1 when the feed
// cannot be fetched or the configuration is invalid, 130 when interrupted,
// and 0 otherwise, even if some episodes failed.
package main
