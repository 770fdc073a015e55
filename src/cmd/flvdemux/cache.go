package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/bililive-go/flvdemux/src/pkg/metadata"
)

func listCache(ctx context.Context, env *appEnv, out io.Writer) error {
	store, err := env.Store()
	if err != nil {
		return err
	}
	entries, err := store.List(ctx, metadata.NamespaceProbe)
	if err != nil {
		return err
	}
	for _, e := range entries {
		// key 形如 path|size|mtime
		path := e.Key
		if i := strings.Index(path, "|"); i >= 0 {
			path = path[:i]
		}
		fmt.Fprintf(out, "%s\t%s\n", e.UpdatedAt.Format("2006-01-02 15:04:05"), path)
	}
	return nil
}

func clearCache(ctx context.Context, env *appEnv, out io.Writer) error {
	store, err := env.Store()
	if err != nil {
		return err
	}
	n, err := store.Clear(ctx, metadata.NamespaceProbe)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "已清除 %d 条缓存\n", n)
	return err
}
