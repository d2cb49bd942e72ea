package protocol

import (
	"testing"

	"github.com/brazzo/sandstrike-mp/shared/gamemath"
)

func TestEncodeDecodeDamageEvent(t *testing.T) {
	evt := DamageEvent{
		TargetID:        "victim",
		SourceID:        "attacker",
		Damage:          30,
		RemainingHealth: 70,
		ItemType:        "rock",
		HitID:           "h1",
		Timestamp:       1700000000000,
	}
	b, err := Encode(MsgPlayerDamaged, evt)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	env, err := DecodeEnvelope(b)
	if err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.T != MsgPlayerDamaged {
		t.Fatalf("envelope type %q, want %q", env.T, MsgPlayerDamaged)
	}

	got, err := DecodePayload[DamageEvent](env)
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if got != evt {
		t.Fatalf("round trip mismatch: %+v != %+v", got, evt)
	}
}

func TestEncodeDecodeProjectileSpawn(t *testing.T) {
	spawn := ProjectileSpawn{
		ID:        "p1",
		PlayerID:  "thrower",
		Origin:    gamemath.Vec3{X: 1, Y: 2, Z: 3},
		Direction: gamemath.Vec3{X: 0, Y: 0, Z: 1},
		ItemType:  "snowball",
		Speed:     18,
		Gravity:   9.8,
		ArcBias:   3.5,
		Scale:     0.8,
	}
	b, err := Encode(MsgProjectile, spawn)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	env, err := DecodeEnvelope(b)
	if err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	got, err := DecodePayload[ProjectileSpawn](env)
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if got != spawn {
		t.Fatalf("round trip mismatch: %+v != %+v", got, spawn)
	}
}

func TestEnvelopeRejectsEmptyType(t *testing.T) {
	if _, err := Encode("", Move{}); err == nil {
		t.Fatalf("expected error for empty envelope type")
	}
}

func TestDecodeEnvelopeRejectsEmptyFrame(t *testing.T) {
	if _, err := DecodeEnvelope(nil); err == nil {
		t.Fatalf("expected error for empty frame")
	}
}

func TestDecodePayloadRejectsEmptyPayload(t *testing.T) {
	if _, err := DecodePayload[Move](Envelope{T: MsgMove}); err == nil {
		t.Fatalf("expected error for empty payload")
	}
}

func TestDecodeEnvelopeRejectsGarbage(t *testing.T) {
	if _, err := DecodeEnvelope([]byte{0xc1, 0xff, 0x00}); err == nil {
		t.Fatalf("expected error for malformed frame")
	}
}

func TestPlayerStateValidation(t *testing.T) {
	valid := []PlayerState{StateIdle, StateWalking, StateJumping, StateHit, StateDeath}
	for _, s := range valid {
		if !s.Valid() {
			t.Fatalf("state %q should be valid", s)
		}
	}
	if PlayerState("flying").Valid() {
		t.Fatalf("unknown state accepted")
	}
	if PlayerState("").Valid() {
		t.Fatalf("empty state accepted")
	}
}
