// Copyright 2026 The cmux-env Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log/slog"

	"github.com/lawrencecchen/cmux-env/lib/envproto"
	"github.com/lawrencecchen/cmux-env/lib/service"
	"github.com/lawrencecchen/cmux-env/lib/store"
)

// daemon binds the store to the socket protocol.
type daemon struct {
	store  *store.Store
	logger *slog.Logger
	server *service.SocketServer
}

func newDaemon(s *store.Store, logger *slog.Logger) *daemon {
	return &daemon{store: s, logger: logger}
}

// registerActions registers all protocol actions on the server.
func (d *daemon) registerActions(server *service.SocketServer) {
	d.server = server
	server.Handle(envproto.ActionPing, d.handlePing)
	server.Handle(envproto.ActionStatus, d.handleStatus)
	server.Handle(envproto.ActionSet, d.handleSet)
	server.Handle(envproto.ActionUnset, d.handleUnset)
	server.Handle(envproto.ActionGet, d.handleGet)
	server.Handle(envproto.ActionList, d.handleList)
	server.Handle(envproto.ActionExport, d.handleExport)
	server.Handle(envproto.ActionLoad, d.handleLoad)
	server.Handle(envproto.ActionShutdown, d.handleShutdown)
}

func (d *daemon) handlePing(ctx context.Context, req *envproto.Request) (any, error) {
	return envproto.Pong{Gen: d.store.Gen()}, nil
}

func (d *daemon) handleStatus(ctx context.Context, req *envproto.Request) (any, error) {
	return d.store.Status(), nil
}

func (d *daemon) handleSet(ctx context.Context, req *envproto.Request) (any, error) {
	gen, err := d.store.Set(req.Dir, req.Key, req.Value)
	if err != nil {
		return nil, err
	}
	d.logger.Debug("set", "key", req.Key, "dir", req.Dir, "gen", gen)
	return envproto.Ack{Gen: gen}, nil
}

func (d *daemon) handleUnset(ctx context.Context, req *envproto.Request) (any, error) {
	gen, err := d.store.Unset(req.Dir, req.Key)
	if err != nil {
		return nil, err
	}
	d.logger.Debug("unset", "key", req.Key, "dir", req.Dir, "gen", gen)
	return envproto.Ack{Gen: gen}, nil
}

func (d *daemon) handleGet(ctx context.Context, req *envproto.Request) (any, error) {
	value, ok, err := d.store.Get(req.Key, req.Pwd)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, envproto.Errorf(envproto.KindNotFound, "%s is not set", req.Key)
	}
	return envproto.Value{Present: true, Value: value}, nil
}

func (d *daemon) handleList(ctx context.Context, req *envproto.Request) (any, error) {
	items, err := d.store.List(req.Pwd)
	if err != nil {
		return nil, err
	}
	return envproto.Listing{Items: items}, nil
}

func (d *daemon) handleExport(ctx context.Context, req *envproto.Request) (any, error) {
	shell, ok := envproto.ParseShell(string(req.Shell))
	if !ok {
		return nil, envproto.Errorf(envproto.KindBadRequest, "unsupported shell %q", req.Shell)
	}
	gen, actions, err := d.store.Export(req.Pwd, req.PrevPwd, req.Since)
	if err != nil {
		return nil, err
	}
	return envproto.Exported{
		Gen:      gen,
		Commands: store.RenderCommands(shell, actions),
	}, nil
}

func (d *daemon) handleLoad(ctx context.Context, req *envproto.Request) (any, error) {
	gen, err := d.store.Load(req.Dir, req.Entries)
	if err != nil {
		return nil, err
	}
	d.logger.Info("loaded entries", "count", len(req.Entries), "dir", req.Dir, "gen", gen)
	return envproto.Ack{Gen: gen}, nil
}

func (d *daemon) handleShutdown(ctx context.Context, req *envproto.Request) (any, error) {
	d.logger.Info("shutdown requested")
	d.server.BeginShutdown()
	return envproto.Ack{Gen: d.store.Gen()}, nil
}
