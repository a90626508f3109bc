// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Command btrfswalk decodes a read-only btrfs image or block device and
// prints the absolute path of every regular file reachable from the default
// subvolume's FS tree.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/datawire/dlib/dgroup"
	"github.com/datawire/dlib/dlog"
	"github.com/spf13/cobra"

	"btrfswalk/lib/btrfstree"
	"btrfswalk/lib/btrfsutil"
	"btrfswalk/lib/btrfsvol"
	"btrfswalk/lib/containers"
	"btrfswalk/lib/diskio"
	"btrfswalk/lib/dump"
	"btrfswalk/lib/jsonout"
	"btrfswalk/lib/logging"
	"btrfswalk/lib/textui"
)

func main() {
	logLevelFlag := logging.NewLevelFlag()
	var jsonFlag, debugFlag, statsFlag bool
	var cacheSizeFlag int

	cmd := &cobra.Command{
		Use:           "btrfswalk IMAGE",
		Short:         "List the regular files reachable from a btrfs image's default subvolume",
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logging.WithLogger(cmd.Context(), logLevelFlag.Level)
			grp := dgroup.NewGroup(ctx, dgroup.GroupConfig{
				EnableSignalHandling: true,
			})
			grp.Go("main", func(ctx context.Context) error {
				return run(ctx, args[0], jsonFlag, debugFlag, statsFlag, cacheSizeFlag)
			})
			return grp.Wait()
		},
	}
	cmd.PersistentFlags().Var(&logLevelFlag, "log-level", "set the log verbosity (panic|fatal|error|warn|info|debug|trace)")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "emit the file list as a JSON array instead of plain `file: ...` lines")
	cmd.Flags().BoolVar(&debugFlag, "debug", false, "dump the decoded superblock to stderr")
	cmd.Flags().BoolVar(&statsFlag, "stats", false, "print a human-readable summary line to stderr when done")
	cmd.Flags().IntVar(&cacheSizeFlag, "cache-size", 1024, "number of tree nodes to keep in the block cache")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "btrfswalk:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, path string, jsonOut, debugOut, statsOut bool, cacheSize int) (err error) {
	img, err := diskio.OpenOSImage(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := img.Close(); err == nil {
			err = cerr
		}
	}()

	sbBuf := make([]byte, 0x1000)
	if err := img.ReadAt(sbBuf, btrfstree.SuperblockPhysOffset); err != nil {
		return fmt.Errorf("read superblock: %w", err)
	}
	sb, err := btrfstree.DecodeSuperblock(sbBuf)
	if err != nil {
		return fmt.Errorf("decode superblock: %w", err)
	}
	if debugOut {
		dump.Struct(os.Stderr, "superblock", sb)
	}

	var chunks btrfsvol.ChunkMap
	if err := btrfstree.ParseSysChunkArray(ctx, sb, &chunks); err != nil {
		return fmt.Errorf("parse bootstrap chunk array: %w", err)
	}

	w := &btrfstree.Walker{
		Img:      img,
		Chunks:   &chunks,
		NodeSize: sb.NodeSize,
		Cache:    containers.NewBlockCache[btrfstree.Node](cacheSize),
	}

	if err := btrfsutil.LoadChunkTree(ctx, w, sb.ChunkRootLogical, &chunks); err != nil {
		return fmt.Errorf("load chunk tree: %w", err)
	}
	dlog.Infof(ctx, "loaded %d chunk map entries", chunks.Len())

	fsRoot, err := btrfsutil.FindDefaultSubvolume(w, sb.RootLogical)
	if err != nil {
		return fmt.Errorf("find default subvolume: %w", err)
	}

	paths, err := btrfsutil.ScanFSTree(w, fsRoot)
	if err != nil {
		return fmt.Errorf("scan FS tree: %w", err)
	}

	if jsonOut {
		if err := jsonout.WritePaths(os.Stdout, paths); err != nil {
			return fmt.Errorf("write json: %w", err)
		}
	} else {
		for _, p := range paths {
			fmt.Println("file: " + p)
		}
	}

	if statsOut {
		textui.Fprintf(os.Stderr, "scanned %v chunk map entries, found %v files\n",
			chunks.Len(), len(paths))
	}

	return nil
}
