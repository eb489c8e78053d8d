package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/jbridge/config"
	"github.com/wippyai/jbridge/invoke"
	"github.com/wippyai/jbridge/memvm"
	"github.com/wippyai/jbridge/memvm/javalib"
	"github.com/wippyai/jbridge/ref"
	"github.com/wippyai/jbridge/resolve"
)

// bridge is one attached runtime thread with the reference manager,
// resolver and engine built from the configuration.
type bridge struct {
	log      *zap.Logger
	vm       *memvm.VM
	env      *memvm.Env
	refs     *ref.Manager
	resolver *resolve.Cache
	engine   *invoke.Engine
	stores   map[string]*javalib.SQLiteStore
	closed   bool
}

func openBridge(cfg config.Config, log *zap.Logger) (*bridge, error) {
	b := &bridge{log: log, stores: make(map[string]*javalib.SQLiteStore)}

	var opts []javalib.Option
	opts = append(opts, javalib.WithPackageName(cfg.Runtime.PackageName), javalib.WithSDK(cfg.Runtime.SDK))
	if path := cfg.Storage.Preferences; path != "" {
		s, err := b.openStore(path)
		if err != nil {
			return nil, err
		}
		opts = append(opts, javalib.WithPreferences(s))
	}
	if path := cfg.Storage.KeyStore; path != "" {
		s, err := b.openStore(path)
		if err != nil {
			b.closeStores()
			return nil, err
		}
		opts = append(opts, javalib.WithKeyStore(s))
	}

	vm, err := memvm.New(
		memvm.WithLibrary(javalib.New(opts...)),
		memvm.WithGlobalCapacity(cfg.Runtime.GlobalCapacity),
		memvm.WithLocalCapacity(cfg.Runtime.LocalCapacity),
		memvm.WithLogger(log.Named("memvm")),
	)
	if err != nil {
		b.closeStores()
		return nil, fmt.Errorf("create runtime: %w", err)
	}
	b.vm = vm
	b.env = vm.Attach()
	b.refs = ref.NewManager(b.env,
		ref.WithCapacity(cfg.Bridge.GlobalCapacity),
		ref.WithLogger(log.Named("ref")),
	)
	b.resolver = resolve.New(b.refs,
		resolve.WithFieldCache(cfg.Bridge.FieldCache),
		resolve.WithLogger(log.Named("resolve")),
	)
	b.engine = invoke.NewEngine(b.env,
		invoke.WithRefs(b.refs),
		invoke.WithResolver(b.resolver),
		invoke.WithLogger(log.Named("invoke")),
	)
	log.Debug("bridge opened",
		zap.String("package", cfg.Runtime.PackageName),
		zap.Int32("sdk", cfg.Runtime.SDK),
		zap.Int("capacity", cfg.Bridge.GlobalCapacity),
		zap.Bool("field_cache", cfg.Bridge.FieldCache))
	return b, nil
}

// openStore opens the SQLite file at path, reusing an already open store
// when preferences and keys share a file.
func (b *bridge) openStore(path string) (*javalib.SQLiteStore, error) {
	if s, ok := b.stores[path]; ok {
		return s, nil
	}
	s, err := javalib.OpenSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	b.stores[path] = s
	return s, nil
}

func (b *bridge) closeStores() {
	for path, s := range b.stores {
		if err := s.Close(); err != nil {
			b.log.Warn("closing store failed", zap.String("path", path), zap.Error(err))
		}
		delete(b.stores, path)
	}
}

// Close tears the bridge down and returns the number of handles that were
// still live.
func (b *bridge) Close() int {
	if b.closed {
		return 0
	}
	b.closed = true
	b.engine.Close()
	b.resolver.Close()
	leaks := b.refs.Close()
	if locals := b.env.Detach(); locals != 0 {
		b.log.Warn("thread detached with live local references", zap.Int("locals", locals))
	}
	b.closeStores()
	return leaks
}

func (b *bridge) stats() string {
	vs := b.vm.Stats()
	rs := b.resolver.Stats()
	return fmt.Sprintf("runtime: globals=%d weaks=%d locals=%d objects=%d invalid=%d | handles=%d | resolver: classes=%d methods=%d fields=%d hits=%d misses=%d",
		vs.Globals, vs.Weaks, vs.Locals, vs.Objects, vs.InvalidRefs,
		b.refs.Len(),
		rs.Classes, rs.Methods, rs.Fields, rs.Hits, rs.Misses)
}
