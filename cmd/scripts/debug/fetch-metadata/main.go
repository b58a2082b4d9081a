package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dlshelf/dlshelf/pkg/assetcache"
	"github.com/dlshelf/dlshelf/pkg/metadata"
	"github.com/jessevdk/go-flags"
	"github.com/robinjoseph08/golib/logger"
)

func main() {
	log := logger.New()

	var opts struct {
		CoversDir string        `short:"o" long:"covers-dir" description:"A directory to download the thumbnail images into"`
		Timeout   time.Duration `short:"t" long:"timeout" default:"30s" description:"HTTP timeout for each request"`
	}

	args, err := flags.Parse(&opts)
	if err != nil {
		log.Err(err).Fatal("flags parse error")
	}

	if len(args) != 1 {
		fmt.Println("go run ./cmd/scripts/debug/fetch-metadata <RJ or VJ code>")
		os.Exit(1)
	}

	ctx := context.Background()
	client := metadata.NewClient(opts.Timeout)

	md, err := client.Fetch(ctx, args[0])
	if err != nil {
		log.Err(err).Fatal("metadata fetch error")
	}

	fmt.Printf("Title: %s\nPublisher: %s\nCategories: %s\nGenres: %s\nRating: %.2f\nImages: %d\n",
		md.Title, md.Publisher, strings.Join(md.Categories, ", "), strings.Join(md.Genres, ", "), md.Rating, len(md.ImageURLs))

	if opts.CoversDir != "" && len(md.ImageURLs) > 0 {
		covers := assetcache.New(opts.Timeout)
		if err := covers.FetchAndStore(ctx, md.ImageURLs, opts.CoversDir); err != nil {
			log.Err(err).Fatal("thumbnail download error")
		}
		fmt.Printf("Thumbnails written under %s\n", opts.CoversDir)
	}
}
