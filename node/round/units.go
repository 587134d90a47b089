/*
	Copyright (C) CESS. All rights reserved.
	Copyright (C) Cumulus Encrypted Storage System. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package round

// Units renders byte counts either in decimal (TB/GB/MB) or binary
// (TiB/GiB/MiB) units.
type Units struct {
	Divisor int64
	Tera    string
	Giga    string
	Mega    string
}

func NewUnits(decimal bool) Units {
	if decimal {
		return Units{Divisor: 1000, Tera: "TB", Giga: "GB", Mega: "MB"}
	}
	return Units{Divisor: 1024, Tera: "TiB", Giga: "GiB", Mega: "MiB"}
}

// ToGiga floors bytes to whole giga units
func (u Units) ToGiga(bytes int64) int64 {
	return bytes / u.Divisor / u.Divisor / u.Divisor
}

// Split returns whole tera units and the giga units left over.
func (u Units) Split(bytes int64) (tera, giga int64) {
	tera = bytes / u.Divisor / u.Divisor / u.Divisor / u.Divisor
	giga = bytes / u.Divisor / u.Divisor / u.Divisor % u.Divisor
	return
}

// PerSecond converts a per-millisecond rate to mega units per second
func (u Units) PerSecond(perMs int64) int64 {
	return perMs * 1000 / u.Divisor / u.Divisor
}
