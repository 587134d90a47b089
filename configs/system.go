/*
	Copyright (C) CESS. All rights reserved.
	Copyright (C) Cumulus Encrypted Storage System. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package configs

const (
	// Name is the name of the program
	Name = "jminer"
	// version
	Version = "v1.0.0"
	// Description is the description of the program
	Description = "Proof-of-Capacity mining client for the Signum network"
	// NameSpace is the cached namespace
	NameSpaces = Name
)
