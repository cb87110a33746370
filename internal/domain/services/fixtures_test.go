package services

import (
	"github.com/tuneforge/tuneforge/internal/domain/entities"
	"github.com/tuneforge/tuneforge/internal/domain/values"
)

func ptr(v float64) *float64 { return &v }

func rng(lo, hi float64) *entities.Range { return &entities.Range{Min: lo, Max: hi} }

func bambuP1S() *entities.MachineProfile {
	return &entities.MachineProfile{
		ID:           "bambu_p1s",
		Brand:        "Bambu Lab",
		Model:        "P1S",
		Aliases:      []string{"P1S", "Bambu P1S"},
		MotionSystem: "CoreXY",
		Enclosed:     true,
		Support:      map[string]bool{"ams": true, "input_shaping": true},
		Kind: &entities.FilamentExtrusion{
			MaterialPresets: map[string]entities.MaterialPreset{
				"PLA":  {NozzleC: rng(190, 230), BedC: rng(45, 65), FanPct: rng(80, 100)},
				"PETG": {NozzleC: rng(230, 260), BedC: rng(70, 85), FanPct: rng(30, 60)},
				"ABS":  {NozzleC: rng(240, 270), BedC: rng(90, 100), FanPct: rng(10, 40)},
			},
			MaxNozzleTempC: ptr(300),
			MaxBedTempC:    ptr(110),
			PrintSpeed:     rng(20, 500),
			TravelSpeed:    rng(50, 600),
			Accel:          rng(500, 20000),
			Jerk:           rng(5, 20),
		},
	}
}

func enderBedslinger() *entities.MachineProfile {
	return &entities.MachineProfile{
		ID:           "creality_ender3_v2",
		Brand:        "Creality",
		Model:        "Ender-3 V2",
		MotionSystem: "BedSlinger",
		Kind: &entities.FilamentExtrusion{
			MaterialPresets: map[string]entities.MaterialPreset{
				"PLA": {NozzleC: rng(190, 220), BedC: rng(50, 70)},
			},
			MaxNozzleTempC: ptr(240),
			MaxBedTempC:    ptr(100),
			PrintSpeed:     rng(20, 150),
			TravelSpeed:    rng(50, 200),
			Accel:          rng(300, 3000),
			Jerk:           rng(4, 12),
		},
	}
}

func marsResin() *entities.MachineProfile {
	return &entities.MachineProfile{
		ID:    "elegoo_mars_4",
		Brand: "Elegoo",
		Model: "Mars 4",
		Kind: &entities.VatPhotopolymer{
			ExposureS: rng(1, 4),
			LiftMMMin: rng(30, 120),
		},
	}
}

func shapeoko(rigidity values.RigidityClass) *entities.MachineProfile {
	return &entities.MachineProfile{
		ID:    "carbide_shapeoko_4",
		Brand: "Carbide 3D",
		Model: "Shapeoko 4",
		Kind: &entities.Subtractive{
			SpindleRPM:   rng(8000, 24000),
			MaxFeedMMMin: ptr(5000),
			Rigidity:     rigidity,
		},
	}
}
