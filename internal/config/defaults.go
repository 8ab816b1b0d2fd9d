package config

const (
	defaultWorkDir        = "./runs"
	defaultDopant         = "O"
	defaultHost           = "C"
	defaultDopantCount    = 2
	defaultDFTCommand     = "gpaw"
	defaultDFTMode        = "lcao"
	defaultDFTBasis       = "dzp"
	defaultDFTXC          = "PBE"
	defaultConvEnergy     = 1e-5
	defaultConvDensity    = 1e-3
	defaultConvEigen      = 1e-8
	defaultFmax           = 0.05
	defaultMaxSteps       = 50
	defaultSTEMCommand    = "python3"
	defaultVoltage        = 200
	defaultSemiangle      = 25
	defaultHAADFInner     = 90
	defaultHAADFOuter     = 200
	defaultSampling       = 0.05
	defaultSliceThickness = 1.0
	defaultSpecies        = "Si"
	defaultHistoBins      = 16
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir: defaultWorkDir,
		},
		Supercell: Supercell{
			Factors: [3]int{2, 2, 1},
			Dopant:  defaultDopant,
			Host:    defaultHost,
			Count:   defaultDopantCount,
		},
		DFT: DFT{
			Command:     defaultDFTCommand,
			NCPU:        1,
			Mode:        defaultDFTMode,
			Basis:       defaultDFTBasis,
			XC:          defaultDFTXC,
			Kpts:        [3]int{1, 1, 1},
			ConvEnergy:  defaultConvEnergy,
			ConvDensity: defaultConvDensity,
			ConvEigen:   defaultConvEigen,
			Fmax:        defaultFmax,
			MaxSteps:    defaultMaxSteps,
		},
		STEM: STEM{
			Command:        defaultSTEMCommand,
			Voltage:        defaultVoltage,
			Semiangle:      defaultSemiangle,
			HAADFInner:     defaultHAADFInner,
			HAADFOuter:     defaultHAADFOuter,
			Sampling:       defaultSampling,
			SliceThickness: defaultSliceThickness,
		},
		Analysis: Analysis{
			Species:   defaultSpecies,
			HistoBins: defaultHistoBins,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
