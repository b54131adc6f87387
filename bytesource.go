// seehuhn.de/go/icc - read and write ICC profiles
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package icc

import "os"

// ByteSource supplies the raw bytes of an ICC profile to [LoadFrom].
// Fetching bytes from disk, the network, or a base64 payload is a
// collaborator concern and deliberately not specified here; hosts
// implement ByteSource however fits their environment (filesystem,
// HTTP client, embedded asset, in-memory buffer).
type ByteSource interface {
	// Load returns the raw bytes identified by id, or a LoadError
	// (code [LoadErrorIO]) describing why they could not be fetched.
	Load(id string) ([]byte, error)
}

// FileByteSource loads profiles from the local filesystem, treating
// the identifier as a path relative to Dir (or absolute).
type FileByteSource struct {
	Dir string
}

func (s FileByteSource) Load(id string) ([]byte, error) {
	path := id
	if s.Dir != "" && (path == "" || !os.IsPathSeparator(path[0])) {
		path = s.Dir + string(os.PathSeparator) + id
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, newLoadError(LoadErrorIO, "%s", err.Error())
	}
	return data, nil
}

// LoadFrom fetches profile bytes from src and decodes them with [Load].
func LoadFrom(src ByteSource, id string) (*Profile, error) {
	data, err := src.Load(id)
	if err != nil {
		if _, ok := err.(*LoadError); ok {
			return nil, err
		}
		return nil, newLoadError(LoadErrorIO, "%s", err.Error())
	}
	return Load(data)
}
