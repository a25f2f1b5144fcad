// banderwagon.go implements the Banderwagon group: the prime-order
// quotient of the Bandersnatch curve over the BLS12-381 scalar field, in
// twisted Edwards form -5x² + y² = 1 + dx²y². It is the group underneath
// every Bandersnatch key in the validator set: ring-VRF ticket proofs
// (ringvrf.go) and IETF-VRF seals (ietfvrf.go) are built from these
// operations and nothing else.
//
// Points use extended twisted Edwards coordinates (X, Y, T, Z) with
// x = X/Z, y = Y/Z, T = XY/Z. Field arithmetic is math/big: correct and
// deterministic, not constant-time — fine for verification, which is all
// the state-transition path ever does; provers hold fuzz-test keys only.
package crypto

import (
	"errors"
	"math/big"
)

// Curve parameters.
//
// The base field is the BLS12-381 scalar field Fr; the prime-order
// subgroup has order n with cofactor 4. Coordinate arithmetic is mod r,
// scalar arithmetic mod n.
var (
	// banderFr is the BLS12-381 scalar field order, the base field for
	// coordinate arithmetic.
	banderFr, _ = new(big.Int).SetString(
		"73eda753299d7d483339d80809a1d80553bda402fffe5bfeffffffff00000001", 16)

	// banderN is the Bandersnatch prime-order subgroup order, the modulus
	// for secret scalars and VRF challenges.
	banderN, _ = new(big.Int).SetString(
		"1cfb69d4ca675f520cce760202687600ff8f87007419047174fd06b52876e7e1", 16)

	// banderA is the twisted Edwards 'a' parameter = -5 mod r.
	banderA = func() *big.Int {
		return new(big.Int).Sub(banderFr, big.NewInt(5))
	}()

	// banderD is the twisted Edwards 'd' parameter.
	banderD, _ = new(big.Int).SetString(
		"6389c12633c267cbc66e3bf86be3b6d8cb66677177e54f92b369f2f5188d58e7", 16)
)

// BanderPoint is a Banderwagon group element in extended twisted Edwards
// coordinates.
type BanderPoint struct {
	x, y, t, z *big.Int
}

// banderFrAdd returns (a + b) mod r.
func banderFrAdd(a, b *big.Int) *big.Int {
	return new(big.Int).Mod(new(big.Int).Add(a, b), banderFr)
}

// banderFrSub returns (a - b) mod r.
func banderFrSub(a, b *big.Int) *big.Int {
	r := new(big.Int).Sub(a, b)
	return r.Mod(r, banderFr)
}

// banderFrMul returns (a * b) mod r.
func banderFrMul(a, b *big.Int) *big.Int {
	return new(big.Int).Mod(new(big.Int).Mul(a, b), banderFr)
}

// banderFrSqr returns a² mod r.
func banderFrSqr(a *big.Int) *big.Int {
	return banderFrMul(a, a)
}

// banderFrNeg returns -a mod r.
func banderFrNeg(a *big.Int) *big.Int {
	if a.Sign() == 0 {
		return new(big.Int)
	}
	return new(big.Int).Sub(banderFr, new(big.Int).Mod(a, banderFr))
}

// banderFrInv returns a⁻¹ mod r, or nil for zero.
func banderFrInv(a *big.Int) *big.Int {
	return new(big.Int).ModInverse(a, banderFr)
}

// banderFrSqrt returns sqrt(a) mod r, or nil if a is not a quadratic
// residue.
func banderFrSqrt(a *big.Int) *big.Int {
	if a.Sign() == 0 {
		return new(big.Int)
	}
	return new(big.Int).ModSqrt(a, banderFr)
}

// BanderIdentity returns the neutral element (0, 1).
func BanderIdentity() *BanderPoint {
	return &BanderPoint{
		x: new(big.Int),
		y: big.NewInt(1),
		t: new(big.Int),
		z: big.NewInt(1),
	}
}

// Subgroup generator: the standard Bandersnatch twisted Edwards generator
// (lexicographically smallest x, cofactor-cleared).
var (
	banderGenX, _ = new(big.Int).SetString(
		"29c132cc2c0b34c5743711777bbe42f32b79c022ad998465e1e71866a252ae18", 16)
	banderGenY, _ = new(big.Int).SetString(
		"2a6c669eda123e0f157d8b50badcd586358cad81eee464605e3167b6cc974166", 16)
)

// BanderGenerator returns the subgroup generator.
func BanderGenerator() *BanderPoint {
	return &BanderPoint{
		x: new(big.Int).Set(banderGenX),
		y: new(big.Int).Set(banderGenY),
		t: banderFrMul(banderGenX, banderGenY),
		z: big.NewInt(1),
	}
}

// BanderIsIdentity reports whether p is the neutral element.
func (p *BanderPoint) BanderIsIdentity() bool {
	// Identity in extended coords: X=0, Y=Z, T=0.
	return new(big.Int).Mod(p.x, banderFr).Sign() == 0
}

// BanderFromAffine lifts affine (x, y) into extended coordinates,
// rejecting points off the curve.
func BanderFromAffine(x, y *big.Int) (*BanderPoint, error) {
	if !banderIsOnCurve(x, y) {
		return nil, errors.New("crypto: banderwagon point not on curve")
	}
	xm := new(big.Int).Mod(x, banderFr)
	ym := new(big.Int).Mod(y, banderFr)
	return &BanderPoint{
		x: xm,
		y: ym,
		t: banderFrMul(xm, ym),
		z: big.NewInt(1),
	}, nil
}

// BanderToAffine projects p back to affine coordinates.
func (p *BanderPoint) BanderToAffine() (x, y *big.Int) {
	if p.z.Cmp(big.NewInt(1)) == 0 {
		return new(big.Int).Set(p.x), new(big.Int).Set(p.y)
	}
	zInv := banderFrInv(p.z)
	return banderFrMul(p.x, zInv), banderFrMul(p.y, zInv)
}

// banderIsOnCurve checks -5x² + y² = 1 + dx²y².
func banderIsOnCurve(x, y *big.Int) bool {
	xm := new(big.Int).Mod(x, banderFr)
	ym := new(big.Int).Mod(y, banderFr)

	x2 := banderFrSqr(xm)
	y2 := banderFrSqr(ym)

	lhs := banderFrAdd(banderFrMul(banderA, x2), y2)
	rhs := banderFrAdd(big.NewInt(1), banderFrMul(banderD, banderFrMul(x2, y2)))
	return lhs.Cmp(rhs) == 0
}

// BanderAdd adds two points with the unified extended-coordinate formula
// of Hisil et al., "Twisted Edwards Curves Revisited" (2008):
//
//	A = X1*X2, B = Y1*Y2, C = T1*d*T2, D = Z1*Z2
//	E = (X1+Y1)*(X2+Y2) - A - B
//	F = D - C, G = D + C, H = B - a*A
//	X3 = E*F, Y3 = G*H, T3 = E*H, Z3 = F*G
func BanderAdd(p1, p2 *BanderPoint) *BanderPoint {
	A := banderFrMul(p1.x, p2.x)
	B := banderFrMul(p1.y, p2.y)
	C := banderFrMul(banderFrMul(p1.t, banderD), p2.t)
	D := banderFrMul(p1.z, p2.z)

	E := banderFrSub(
		banderFrMul(banderFrAdd(p1.x, p1.y), banderFrAdd(p2.x, p2.y)),
		banderFrAdd(A, B))
	F := banderFrSub(D, C)
	G := banderFrAdd(D, C)
	H := banderFrSub(B, banderFrMul(banderA, A))

	return &BanderPoint{
		x: banderFrMul(E, F),
		y: banderFrMul(G, H),
		t: banderFrMul(E, H),
		z: banderFrMul(F, G),
	}
}

// BanderDouble doubles a point with the dedicated doubling formula:
//
//	A = X1², B = Y1², C = 2*Z1²
//	D = a*A, E = (X1+Y1)² - A - B
//	G = D + B, F = G - C, H = D - B
//	X3 = E*F, Y3 = G*H, T3 = E*H, Z3 = F*G
func BanderDouble(p *BanderPoint) *BanderPoint {
	A := banderFrSqr(p.x)
	B := banderFrSqr(p.y)
	C := banderFrMul(big.NewInt(2), banderFrSqr(p.z))

	D := banderFrMul(banderA, A)
	E := banderFrSub(banderFrSqr(banderFrAdd(p.x, p.y)), banderFrAdd(A, B))
	G := banderFrAdd(D, B)
	F := banderFrSub(G, C)
	H := banderFrSub(D, B)

	return &BanderPoint{
		x: banderFrMul(E, F),
		y: banderFrMul(G, H),
		t: banderFrMul(E, H),
		z: banderFrMul(F, G),
	}
}

// BanderNeg negates a point: -(x, y) = (-x, y).
func BanderNeg(p *BanderPoint) *BanderPoint {
	return &BanderPoint{
		x: banderFrNeg(p.x),
		y: new(big.Int).Set(p.y),
		t: banderFrNeg(p.t),
		z: new(big.Int).Set(p.z),
	}
}

// BanderScalarMul computes k*P by double-and-add, reducing k modulo the
// subgroup order first.
func BanderScalarMul(p *BanderPoint, k *big.Int) *BanderPoint {
	if k.Sign() == 0 || p.BanderIsIdentity() {
		return BanderIdentity()
	}
	scalar := new(big.Int).Mod(k, banderN)
	if scalar.Sign() == 0 {
		return BanderIdentity()
	}

	result := BanderIdentity()
	base := &BanderPoint{
		x: new(big.Int).Set(p.x),
		y: new(big.Int).Set(p.y),
		t: new(big.Int).Set(p.t),
		z: new(big.Int).Set(p.z),
	}
	for i := scalar.BitLen() - 1; i >= 0; i-- {
		result = BanderDouble(result)
		if scalar.Bit(i) == 1 {
			result = BanderAdd(result, base)
		}
	}
	return result
}

// BanderEqual reports whether two points are the same group element. In
// the Banderwagon quotient, (x, y) and (-x, -y) are the same element, so
// both orbits are checked.
func BanderEqual(p1, p2 *BanderPoint) bool {
	lx := banderFrMul(p1.x, p2.z)
	rx := banderFrMul(p2.x, p1.z)
	ly := banderFrMul(p1.y, p2.z)
	ry := banderFrMul(p2.y, p1.z)

	if lx.Cmp(rx) == 0 && ly.Cmp(ry) == 0 {
		return true
	}
	return lx.Cmp(banderFrNeg(rx)) == 0 && ly.Cmp(banderFrNeg(ry)) == 0
}

// BanderSerialize encodes a point to the 32-byte wire form every
// Bandersnatch public key and VRF output uses: the Y coordinate
// little-endian, normalized to the lower half of the field, with the sign
// of X in the top bit of the final byte.
func BanderSerialize(p *BanderPoint) [32]byte {
	x, y := p.BanderToAffine()
	var result [32]byte

	if p.BanderIsIdentity() {
		result[0] = 1
		return result
	}

	halfR := new(big.Int).Rsh(banderFr, 1)
	if y.Cmp(halfR) > 0 {
		// Swap to the equivalent (-x, -y) representative.
		x = banderFrNeg(x)
		y = banderFrNeg(y)
	}

	yBytes := y.Bytes()
	for i, b := range yBytes {
		result[len(yBytes)-1-i] = b
	}
	if x.Cmp(halfR) > 0 {
		result[31] |= 0x80
	}
	return result
}

// BanderDeserialize decodes a 32-byte encoding back to a point, solving
// the curve equation for X and applying the sign bit.
func BanderDeserialize(data [32]byte) (*BanderPoint, error) {
	signBit := data[31] & 0x80
	data[31] &= 0x7f

	beBytes := make([]byte, 32)
	for i := 0; i < 32; i++ {
		beBytes[31-i] = data[i]
	}
	y := new(big.Int).SetBytes(beBytes)
	if y.Cmp(banderFr) >= 0 {
		return nil, errors.New("crypto: banderwagon Y coordinate out of range")
	}

	// -5x² + y² = 1 + dx²y²  =>  x² = (y² - 1) / (5 + dy²).
	y2 := banderFrSqr(y)
	num := banderFrSub(y2, big.NewInt(1))
	den := banderFrAdd(big.NewInt(5), banderFrMul(banderD, y2))
	denInv := banderFrInv(den)
	if denInv == nil {
		return nil, errors.New("crypto: banderwagon degenerate point")
	}
	x := banderFrSqrt(banderFrMul(num, denInv))
	if x == nil {
		return nil, errors.New("crypto: banderwagon no valid X coordinate")
	}

	halfR := new(big.Int).Rsh(banderFr, 1)
	if signBit != 0 && x.Cmp(halfR) <= 0 {
		x = banderFrNeg(x)
	} else if signBit == 0 && x.Cmp(halfR) > 0 {
		x = banderFrNeg(x)
	}
	return BanderFromAffine(x, y)
}

// banderScalarAdd returns (a + b) mod n.
func banderScalarAdd(a, b *big.Int) *big.Int {
	return new(big.Int).Mod(new(big.Int).Add(a, b), banderN)
}

// banderScalarMul returns (a * b) mod n.
func banderScalarMul(a, b *big.Int) *big.Int {
	return new(big.Int).Mod(new(big.Int).Mul(a, b), banderN)
}
