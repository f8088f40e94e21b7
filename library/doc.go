// Package library contains implementations of core.PhotoLibrary, the photo
// library an album provider reads still images from.
//
// The interface lives in the core package so providers and sessions depend
// only on the contract. InMemoryStore suits tests and single-process
// prototypes; DirStore exposes a directory of image files.
package library
