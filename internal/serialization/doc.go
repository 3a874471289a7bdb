// Package serialization implements the .nth checkpoint format for noether
// network parameters.
//
// A checkpoint is a fixed header, a JSON description of the tensors and the
// little-endian tensor data:
//
//	Format Structure:
//	  [0x00: Magic "NOTH"]
//	  [0x04: Version (uint32 LE)]
//	  [0x08: Flags (uint32 LE)]
//	  [0x0C: Reserved]
//	  [0x10: Header size (uint64 LE)]
//	  [0x18: Data size (uint64 LE)]
//	  [0x20: SHA-256 of the data section (32 bytes)]
//	  [0x40: Header: JSON metadata]
//	  [Tensor data: 8 bytes per element, 64-byte aligned]
//
// Tensors are stored in name order, so writing the same state dict twice
// yields identical data sections.
//
// Example usage:
//
//	// Save a network
//	header := serialization.Header{ModelType: "cifar10"}
//	if err := serialization.WriteFile("model.nth", net.StateDict(), header); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Load it back
//	ckpt, err := serialization.ReadFile("model.nth", serialization.ReaderOptions{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := net.LoadStateDict(ckpt.Tensors); err != nil {
//	    log.Fatal(err)
//	}
package serialization
