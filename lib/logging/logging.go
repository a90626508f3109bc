// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package logging wires logrus up to dlib's context-carried logger, the way
// cmd/btrfs-rec does it, so the rest of the tool can just pull a logger out
// of its context.Context.
package logging

import (
	"context"

	"github.com/datawire/dlib/dlog"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

// LevelFlag adapts a logrus.Level to pflag.Value, for a --log-level flag.
type LevelFlag struct {
	logrus.Level
}

var _ pflag.Value = (*LevelFlag)(nil)

func (lvl *LevelFlag) Type() string { return "loglevel" }

func (lvl *LevelFlag) Set(str string) error {
	var err error
	lvl.Level, err = logrus.ParseLevel(str)
	return err
}

// NewLevelFlag returns a LevelFlag defaulting to logrus.InfoLevel.
func NewLevelFlag() LevelFlag {
	return LevelFlag{Level: logrus.InfoLevel}
}

// WithLogger returns a context carrying a logrus-backed dlog.Logger at the
// given level, formatted plainly (no timestamps; the caller is an
// interactive CLI, not a long-running daemon).
func WithLogger(ctx context.Context, lvl logrus.Level) context.Context {
	logger := logrus.New()
	logger.SetLevel(lvl)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	return dlog.WithLogger(ctx, dlog.WrapLogrus(logger))
}
