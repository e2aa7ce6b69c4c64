package cgs

import "github.com/phulin/statute-ingest/internal/sources"

func init() {
	sources.Global.Register("cgs", New())
}
