package redispb

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/bufbuild/protocompile"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
)

// Catalog holds the message descriptors for every registered schema.
//
// Registration happens during startup only: register schemas, then Seal,
// then start serving commands. After Seal the catalog is immutable and
// lookups are safe from any goroutine without locking. Registering after
// Seal is a programming error and panics.
type Catalog struct {
	files  *protoregistry.Files
	types  *protoregistry.Types
	sealed atomic.Bool
}

func NewCatalog() *Catalog {
	return &Catalog{
		files: new(protoregistry.Files),
		types: new(protoregistry.Types),
	}
}

// Seal marks the end of schema registration.
func (c *Catalog) Seal() {
	c.sealed.Store(true)
}

// Sealed reports whether registration has ended. The server refuses to
// accept connections before that.
func (c *Catalog) Sealed() bool {
	return c.sealed.Load()
}

func (c *Catalog) checkMutable() {
	if c.sealed.Load() {
		panic("catalog is sealed, schemas must be registered before serving starts")
	}
}

// RegisterDescriptorSet registers every file in a protoc-generated
// FileDescriptorSet (protoc --descriptor_set_out, ideally with
// --include_imports). Files already registered are skipped, so overlapping
// sets are fine.
func (c *Catalog) RegisterDescriptorSet(data []byte) error {
	c.checkMutable()
	var fds descriptorpb.FileDescriptorSet
	if err := proto.Unmarshal(data, &fds); err != nil {
		return fmt.Errorf("bad descriptor set: %w", err)
	}

	// Sets are not guaranteed to list files in dependency order, so keep
	// retrying the remainder until a pass makes no progress.
	pending := fds.GetFile()
	for len(pending) > 0 {
		var stuck []*descriptorpb.FileDescriptorProto
		var lastErr error
		for _, fdp := range pending {
			if _, err := c.files.FindFileByPath(fdp.GetName()); err == nil {
				continue
			}
			fd, err := protodesc.NewFile(fdp, c.files)
			if err != nil {
				stuck = append(stuck, fdp)
				lastErr = err
				continue
			}
			if err := c.addFile(fd); err != nil {
				return err
			}
		}
		if len(stuck) == len(pending) {
			return fmt.Errorf("descriptor set file %q: %w", stuck[0].GetName(), lastErr)
		}
		pending = stuck
	}
	return nil
}

// RegisterSource compiles a single in-memory .proto source and registers it.
// The name is the virtual file name imports would refer to it by.
func (c *Catalog) RegisterSource(ctx context.Context, name, source string) error {
	c.checkMutable()
	comp := protocompile.Compiler{
		Resolver: protocompile.WithStandardImports(&protocompile.SourceResolver{
			Accessor: protocompile.SourceAccessorFromMap(map[string]string{name: source}),
		}),
	}
	files, err := comp.Compile(ctx, name)
	if err != nil {
		return fmt.Errorf("compile %s: %w", name, err)
	}
	for _, fd := range files {
		if err := c.addFileRecursive(fd); err != nil {
			return err
		}
	}
	return nil
}

// RegisterProtoFiles compiles .proto sources from disk and registers them
// together with their imports. Paths are relative to root, which also
// serves as the import path.
func (c *Catalog) RegisterProtoFiles(ctx context.Context, root string, paths ...string) error {
	c.checkMutable()
	comp := protocompile.Compiler{
		Resolver: protocompile.WithStandardImports(&protocompile.SourceResolver{
			ImportPaths: []string{root},
		}),
	}
	files, err := comp.Compile(ctx, paths...)
	if err != nil {
		return fmt.Errorf("compile schemas in %s: %w", root, err)
	}
	for _, fd := range files {
		if err := c.addFileRecursive(fd); err != nil {
			return err
		}
	}
	return nil
}

// LoadDir registers every schema file found under dir: .proto sources are
// compiled (with dir as the import path), .binpb/.pb/.desc files are read
// as FileDescriptorSets.
func (c *Catalog) LoadDir(ctx context.Context, dir string) error {
	var protos, sets []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".proto":
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}
			protos = append(protos, filepath.ToSlash(rel))
		case ".binpb", ".pb", ".desc":
			sets = append(sets, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan schema dir %s: %w", dir, err)
	}

	for _, path := range sets {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if err := c.RegisterDescriptorSet(data); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	if len(protos) > 0 {
		sort.Strings(protos)
		if err := c.RegisterProtoFiles(ctx, dir, protos...); err != nil {
			return err
		}
	}
	return nil
}

func (c *Catalog) addFileRecursive(fd protoreflect.FileDescriptor) error {
	imports := fd.Imports()
	for i := 0; i < imports.Len(); i++ {
		if err := c.addFileRecursive(imports.Get(i).FileDescriptor); err != nil {
			return err
		}
	}
	if _, err := c.files.FindFileByPath(fd.Path()); err == nil {
		return nil
	}
	return c.addFile(fd)
}

func (c *Catalog) addFile(fd protoreflect.FileDescriptor) error {
	if err := c.files.RegisterFile(fd); err != nil {
		return fmt.Errorf("register %s: %w", fd.Path(), err)
	}
	return c.addMessages(fd.Messages(), fd.Enums())
}

func (c *Catalog) addMessages(msgs protoreflect.MessageDescriptors, enums protoreflect.EnumDescriptors) error {
	for i := 0; i < enums.Len(); i++ {
		if err := c.types.RegisterEnum(dynamicpb.NewEnumType(enums.Get(i))); err != nil {
			return err
		}
	}
	for i := 0; i < msgs.Len(); i++ {
		md := msgs.Get(i)
		if md.IsMapEntry() {
			continue
		}
		if err := c.types.RegisterMessage(dynamicpb.NewMessageType(md)); err != nil {
			return err
		}
		if err := c.addMessages(md.Messages(), md.Enums()); err != nil {
			return err
		}
	}
	return nil
}

// Lookup returns the descriptor for a fully-qualified message type name.
func (c *Catalog) Lookup(typeName string) (protoreflect.MessageDescriptor, error) {
	name := protoreflect.FullName(typeName)
	if !name.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, typeName)
	}
	d, err := c.files.FindDescriptorByName(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, typeName)
	}
	md, ok := d.(protoreflect.MessageDescriptor)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a message", ErrUnknownType, typeName)
	}
	return md, nil
}

// NewRecord returns a fresh empty record of the given registered type.
func (c *Catalog) NewRecord(typeName string) (*dynamicpb.Message, error) {
	md, err := c.Lookup(typeName)
	if err != nil {
		return nil, err
	}
	return dynamicpb.NewMessage(md), nil
}

// Types exposes the registered dynamic types, e.g. as a protojson resolver.
func (c *Catalog) Types() *protoregistry.Types {
	return c.types
}

// TypeNames returns the full names of all registered message types, sorted.
func (c *Catalog) TypeNames() []string {
	var names []string
	c.types.RangeMessages(func(mt protoreflect.MessageType) bool {
		names = append(names, string(mt.Descriptor().FullName()))
		return true
	})
	sort.Strings(names)
	return names
}

// Len returns the number of registered message types.
func (c *Catalog) Len() int {
	return c.types.NumMessages()
}
