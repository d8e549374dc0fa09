package loader

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/delve/engine/world"
)

//go:embed world/*.lua
var defaultWorld embed.FS

// collector accumulates Lua definitions during file execution.
type collector struct {
	game       *lua.LTable
	rooms      []rawRoom
	puzzles    []rawPuzzle
	usables    []rawUsable
	encounters []*lua.LTable
	handlers   []rawHandler
}

// Default loads the world bundled with the binary.
func Default(logger *slog.Logger) (*world.Defs, error) {
	sub, err := fs.Sub(defaultWorld, "world")
	if err != nil {
		return nil, fmt.Errorf("opening bundled world: %w", err)
	}
	return LoadFS(sub, logger)
}

// Load reads all .lua files from dir, compiles them into world definitions,
// validates references, and returns the immutable Defs.
func Load(dir string, logger *slog.Logger) (*world.Defs, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("reading world directory %s: %w", dir, err)
	}
	defs, err := LoadFS(os.DirFS(dir), logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", dir, err)
	}
	return defs, nil
}

// LoadFS is Load over any file system. The Lua VM is discarded after
// loading. Warnings (unreachable rooms and the like) go to logger.
func LoadFS(fsys fs.FS, logger *slog.Logger) (*world.Defs, error) {
	if logger == nil {
		logger = slog.Default()
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("reading world scripts: %w", err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".lua") {
			luaFiles = append(luaFiles, e.Name())
		}
	}
	if len(luaFiles) == 0 {
		return nil, fmt.Errorf("no .lua files found")
	}

	// Sort: game.lua first, rest alphabetical.
	luaFiles = sortedLuaFiles(luaFiles)

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	openSafeLibs(L)
	sandbox(L)

	coll := &collector{}
	registerAPI(L, coll)

	for _, f := range luaFiles {
		src, err := fs.ReadFile(fsys, f)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f, err)
		}
		if err := run(L, src, path.Base(f)); err != nil {
			return nil, fmt.Errorf("executing %s: %w", f, err)
		}
	}

	defs, err := compile(coll)
	if err != nil {
		return nil, fmt.Errorf("compiling world: %w", err)
	}

	if err := validate(defs, logger); err != nil {
		return nil, err
	}

	logger.Debug("world loaded",
		"title", defs.Game.Title,
		"files", len(luaFiles),
		"rooms", len(defs.Rooms),
		"puzzles", len(defs.Puzzles),
		"encounters", len(defs.Encounters),
	)
	return defs, nil
}

func run(L *lua.LState, src []byte, name string) error {
	fn, err := L.Load(bytes.NewReader(src), name)
	if err != nil {
		return err
	}
	L.Push(fn)
	return L.PCall(0, lua.MultRet, nil)
}

// openSafeLibs opens only the safe subset of Lua standard libraries.
func openSafeLibs(L *lua.LState) {
	// Base library (print, type, tostring, tonumber, pairs, ipairs, etc.)
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// sandbox removes dangerous globals and functions.
func sandbox(L *lua.LState) {
	dangerous := []string{
		"dofile", "loadfile", "load", "loadstring", "require",
		"rawset", "rawget", "rawequal",
		"collectgarbage",
	}
	for _, name := range dangerous {
		L.SetGlobal(name, lua.LNil)
	}

	// Scripts must not touch the RNG; encounters are drawn by the engine.
	if mathTbl := L.GetGlobal("math"); mathTbl != lua.LNil {
		if tbl, ok := mathTbl.(*lua.LTable); ok {
			tbl.RawSetString("random", lua.LNil)
			tbl.RawSetString("randomseed", lua.LNil)
		}
	}
}
