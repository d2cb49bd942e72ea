package gamemath

// LaunchVelocity computes a projectile's initial velocity from its normalized
// direction, scalar speed, and an upward arc bias added at launch. Every
// client integrates the same constants, so trajectories agree approximately
// without any cross-client coordination.
func LaunchVelocity(dir Vec3, speed, arcBias float64) Vec3 {
	v := dir.Normalized().Scale(speed)
	v.Y += arcBias
	return v
}

// StepBallistic advances one Euler integration step: gravity pulls the
// velocity down, then the position moves along it.
func StepBallistic(pos, vel Vec3, gravity, dt float64) (Vec3, Vec3) {
	vel.Y -= gravity * dt
	return pos.Add(vel.Scale(dt)), vel
}
