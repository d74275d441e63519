package model

// SolarSystem returns the default scene: the sun followed by eight planets
// on coplanar circular paths. Sizes are scene units, not kilometres.
func SolarSystem() []BodyDescriptor {
	return []BodyDescriptor{
		{
			Name:     "Sun",
			Size:     5,
			Emissive: true,
			Texture:  "textures/sun.jpg",
			Color:    0xfdb813,
		},
		{
			Name:        "Mercury",
			Size:        0.38,
			OrbitRadius: 10,
			Texture:     "textures/mercury.jpg",
			Color:       0xb5b5b5,
		},
		{
			Name:         "Venus",
			Size:         0.95,
			OrbitRadius:  15,
			HasClouds:    true,
			Texture:      "textures/venus.jpg",
			CloudTexture: "textures/venus_atmosphere.jpg",
			Color:        0xe8cda2,
		},
		{
			Name:                   "Earth",
			Size:                   1,
			OrbitRadius:            20,
			SingleDefaultSatellite: true,
			HasClouds:              true,
			IsPrimaryWithDayNight:  true,
			Texture:                "textures/earth_day.jpg",
			NightTexture:           "textures/earth_night.jpg",
			CloudTexture:           "textures/earth_clouds.png",
			Color:                  0x2e86ab,
		},
		{
			Name:        "Mars",
			Size:        0.53,
			OrbitRadius: 25,
			Satellites: []SatelliteSpec{
				{Name: "Phobos", Size: 0.08, OrbitRadius: 1.2},
				{Name: "Deimos", Size: 0.06, OrbitRadius: 1.8},
			},
			Texture: "textures/mars.jpg",
			Color:   0xc1440e,
		},
		{
			Name:        "Jupiter",
			Size:        3.2,
			OrbitRadius: 45,
			Satellites: []SatelliteSpec{
				{Name: "Io", Size: 0.28, OrbitRadius: 4.6},
				{Name: "Europa", Size: 0.25, OrbitRadius: 5.4},
				{Name: "Ganymede", Size: 0.41, OrbitRadius: 6.5},
				{Name: "Callisto", Size: 0.38, OrbitRadius: 7.8},
			},
			Texture: "textures/jupiter.jpg",
			Color:   0xd8ca9d,
		},
		{
			Name:        "Saturn",
			Size:        2.7,
			OrbitRadius: 60,
			Satellites: []SatelliteSpec{
				{Name: "Titan", Size: 0.4, OrbitRadius: 6.2},
			},
			HasRings:    true,
			Texture:     "textures/saturn.jpg",
			RingTexture: "textures/saturn_ring.png",
			Color:       0xead6b8,
		},
		{
			Name:        "Uranus",
			Size:        1.6,
			OrbitRadius: 75,
			HasRings:    true,
			Texture:     "textures/uranus.jpg",
			RingTexture: "textures/uranus_ring.png",
			Color:       0xd1e7e7,
		},
		{
			Name:        "Neptune",
			Size:        1.55,
			OrbitRadius: 90,
			Satellites: []SatelliteSpec{
				{Name: "Triton", Size: 0.21, OrbitRadius: 3.4},
			},
			Texture: "textures/neptune.jpg",
			Color:   0x5b5ddf,
		},
	}
}
