// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package descriptor

import "fmt"

// Files is a registry of built file descriptors, keyed by the fully
// qualified name of every message and enum they declare. Lookups are by FQN
// string rather than by AST or linker pointer, so that a DynamicMessage (or
// generated code calling into reflection) can resolve a cross-message
// reference without holding onto the file set that produced it.
type Files struct {
	messages map[string]*MessageDescriptor
	enums    map[string]*EnumDescriptor
	files    map[string]*FileDescriptor
}

// NewFiles returns an empty registry.
func NewFiles() *Files {
	return &Files{
		messages: map[string]*MessageDescriptor{},
		enums:    map[string]*EnumDescriptor{},
		files:    map[string]*FileDescriptor{},
	}
}

// RegisterFile adds fd's messages, enums, and the file itself to the
// registry. It returns an error if any FQN it declares is already
// registered, mirroring a single compiled program never declaring the same
// type twice (the linker's global FQN table already enforces this within one
// Link call; RegisterFile extends that guarantee across separately-linked
// file sets sharing one registry).
func (r *Files) RegisterFile(fd *FileDescriptor) error {
	if _, ok := r.files[fd.Name]; ok {
		return fmt.Errorf("descriptor: file %q already registered", fd.Name)
	}
	for _, m := range fd.Messages {
		if err := r.registerMessage(m); err != nil {
			return err
		}
	}
	for _, e := range fd.Enums {
		if _, ok := r.enums[e.FQN]; ok {
			return fmt.Errorf("descriptor: enum %q already registered", e.FQN)
		}
		r.enums[e.FQN] = e
	}
	r.files[fd.Name] = fd
	return nil
}

func (r *Files) registerMessage(m *MessageDescriptor) error {
	if _, ok := r.messages[m.FQN]; ok {
		return fmt.Errorf("descriptor: message %q already registered", m.FQN)
	}
	r.messages[m.FQN] = m
	return nil
}

// MessageByName returns the registered message with the given FQN.
func (r *Files) MessageByName(fqn string) (*MessageDescriptor, bool) {
	m, ok := r.messages[fqn]
	return m, ok
}

// EnumByName returns the registered enum with the given FQN.
func (r *Files) EnumByName(fqn string) (*EnumDescriptor, bool) {
	e, ok := r.enums[fqn]
	return e, ok
}

// FileByName returns the registered file descriptor with the given path.
func (r *Files) FileByName(name string) (*FileDescriptor, bool) {
	f, ok := r.files[name]
	return f, ok
}
