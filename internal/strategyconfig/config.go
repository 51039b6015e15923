package strategyconfig

// Config는 스윙 랭킹 전략의 전체 설정
// 모든 휴리스틱 상수(지표 기간, 점수표, 확률 가중치)는 여기서만 정의
type Config struct {
	Meta        Meta        `yaml:"meta" json:"meta"`
	Indicators  Indicators  `yaml:"indicators" json:"indicators"`
	Swing       Swing       `yaml:"swing" json:"swing"`
	Levels      Levels      `yaml:"levels" json:"levels"`
	Probability Probability `yaml:"probability" json:"probability"`
	Entry       Entry       `yaml:"entry" json:"entry"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
}

// Indicators S2: 지표 계산 파라미터
type Indicators struct {
	RSIPeriod  int     `yaml:"rsi_period" json:"rsi_period"`
	MACDFast   int     `yaml:"macd_fast" json:"macd_fast"`
	MACDSlow   int     `yaml:"macd_slow" json:"macd_slow"`
	MACDSignal int     `yaml:"macd_signal" json:"macd_signal"`
	BBPeriod   int     `yaml:"bb_period" json:"bb_period"`
	BBStdDev   float64 `yaml:"bb_stddev" json:"bb_stddev"`
	ATRPeriod  int     `yaml:"atr_period" json:"atr_period"`
	SMAShort   int     `yaml:"sma_short" json:"sma_short"`
	SMAMid     int     `yaml:"sma_mid" json:"sma_mid"`
	SMALong    int     `yaml:"sma_long" json:"sma_long"`
}

// Swing 점수표 (카테고리 내 배타, 카테고리 간 합산)
type Swing struct {
	RSI        RSIRule        `yaml:"rsi" json:"rsi"`
	MACD       MACDRule       `yaml:"macd" json:"macd"`
	Bollinger  BollingerRule  `yaml:"bollinger" json:"bollinger"`
	Volatility VolatilityRule `yaml:"volatility" json:"volatility"`
	Trend      TrendRule      `yaml:"trend" json:"trend"`
	MaxScore   float64        `yaml:"max_score" json:"max_score"`
}

type RSIRule struct {
	Oversold          float64 `yaml:"oversold" json:"oversold"`                 // < 30
	ApproachingHigh   float64 `yaml:"approaching_high" json:"approaching_high"` // [30, 40]
	NeutralLow        float64 `yaml:"neutral_low" json:"neutral_low"`           // [60, 70]
	NeutralHigh       float64 `yaml:"neutral_high" json:"neutral_high"`
	OversoldPoints    float64 `yaml:"oversold_points" json:"oversold_points"`
	ApproachingPoints float64 `yaml:"approaching_points" json:"approaching_points"`
	NeutralPoints     float64 `yaml:"neutral_points" json:"neutral_points"`
}

type MACDRule struct {
	CrossoverPoints   float64 `yaml:"crossover_points" json:"crossover_points"`
	AboveSignalPoints float64 `yaml:"above_signal_points" json:"above_signal_points"`
	HistogramPoints   float64 `yaml:"histogram_points" json:"histogram_points"`
}

type BollingerRule struct {
	BelowLowerPoints  float64 `yaml:"below_lower_points" json:"below_lower_points"`
	BelowMiddlePoints float64 `yaml:"below_middle_points" json:"below_middle_points"`
}

// VolatilityRule ATR/Close (%) 구간
type VolatilityRule struct {
	OptimalMinPct float64 `yaml:"optimal_min_pct" json:"optimal_min_pct"` // exclusive
	OptimalMaxPct float64 `yaml:"optimal_max_pct" json:"optimal_max_pct"` // exclusive
	GoodMinPct    float64 `yaml:"good_min_pct" json:"good_min_pct"`       // exclusive
	OptimalPoints float64 `yaml:"optimal_points" json:"optimal_points"`
	GoodPoints    float64 `yaml:"good_points" json:"good_points"`
}

type TrendRule struct {
	BullishPoints float64 `yaml:"bullish_points" json:"bullish_points"`
}

// Levels 진입/손절/목표가 계산
type Levels struct {
	SupportWindow     int     `yaml:"support_window" json:"support_window"`
	StopATRMultiple   float64 `yaml:"stop_atr_multiple" json:"stop_atr_multiple"`
	TargetATRMultiple float64 `yaml:"target_atr_multiple" json:"target_atr_multiple"`
	StopFallbackPct   float64 `yaml:"stop_fallback_pct" json:"stop_fallback_pct"`     // entry × (1 - pct)
	TargetFallbackPct float64 `yaml:"target_fallback_pct" json:"target_fallback_pct"` // entry × (1 + pct)
}

// Probability 확률 블렌딩 가중치
type Probability struct {
	// overall = pattern×W + swing×SwingScale×W + rr×100×W
	PatternWeight float64 `yaml:"pattern_weight" json:"pattern_weight"`
	SwingWeight   float64 `yaml:"swing_weight" json:"swing_weight"`
	RRWeight      float64 `yaml:"rr_weight" json:"rr_weight"`
	SwingScale    float64 `yaml:"swing_scale" json:"swing_scale"`

	// pattern = winRate×W + z×W + meanReversion×W
	WinRateWeight       float64 `yaml:"win_rate_weight" json:"win_rate_weight"`
	ZScoreWeight        float64 `yaml:"zscore_weight" json:"zscore_weight"`
	MeanReversionWeight float64 `yaml:"mean_reversion_weight" json:"mean_reversion_weight"`

	Pattern       Pattern       `yaml:"pattern" json:"pattern"`
	MeanReversion MeanReversion `yaml:"mean_reversion" json:"mean_reversion"`
	RRTiers       []RRTier      `yaml:"rr_tiers" json:"rr_tiers"` // 내림차순
	RRDefault     float64       `yaml:"rr_default" json:"rr_default"`
	Neutral       float64       `yaml:"neutral" json:"neutral"`
}

// Pattern 과거 유사 RSI 구간 승률
type Pattern struct {
	MinRows      int     `yaml:"min_rows" json:"min_rows"`
	RSIBand      float64 `yaml:"rsi_band" json:"rsi_band"`
	MinMatches   int     `yaml:"min_matches" json:"min_matches"`
	Lookahead    int     `yaml:"lookahead" json:"lookahead"`
	WinGainPct   float64 `yaml:"win_gain_pct" json:"win_gain_pct"`
	ReturnWindow int     `yaml:"return_window" json:"return_window"`
}

type MeanReversion struct {
	Base            float64 `yaml:"base" json:"base"`
	BelowSMABonus   float64 `yaml:"below_sma_bonus" json:"below_sma_bonus"`
	BelowLowerBonus float64 `yaml:"below_lower_bonus" json:"below_lower_bonus"`
}

// RRTier ratio ≥ MinRatio → Probability (0~1)
type RRTier struct {
	MinRatio    float64 `yaml:"min_ratio" json:"min_ratio"`
	Probability float64 `yaml:"probability" json:"probability"`
}

// Entry 진입 시점 추천
type Entry struct {
	LowWindow  int     `yaml:"low_window" json:"low_window"`
	NearLowPct float64 `yaml:"near_low_pct" json:"near_low_pct"`
}

// Default returns the built-in strategy
func Default() *Config {
	return &Config{
		Meta: Meta{
			StrategyID: "bse_swing",
			Version:    "v1",
		},
		Indicators: Indicators{
			RSIPeriod:  14,
			MACDFast:   12,
			MACDSlow:   26,
			MACDSignal: 9,
			BBPeriod:   20,
			BBStdDev:   2,
			ATRPeriod:  14,
			SMAShort:   20,
			SMAMid:     50,
			SMALong:    200,
		},
		Swing: Swing{
			RSI: RSIRule{
				Oversold:          30,
				ApproachingHigh:   40,
				NeutralLow:        60,
				NeutralHigh:       70,
				OversoldPoints:    30,
				ApproachingPoints: 20,
				NeutralPoints:     10,
			},
			MACD: MACDRule{
				CrossoverPoints:   25,
				AboveSignalPoints: 15,
				HistogramPoints:   10,
			},
			Bollinger: BollingerRule{
				BelowLowerPoints:  20,
				BelowMiddlePoints: 10,
			},
			Volatility: VolatilityRule{
				OptimalMinPct: 1,
				OptimalMaxPct: 5,
				GoodMinPct:    0.5,
				OptimalPoints: 15,
				GoodPoints:    8,
			},
			Trend:    TrendRule{BullishPoints: 5},
			MaxScore: 100,
		},
		Levels: Levels{
			SupportWindow:     20,
			StopATRMultiple:   1.5,
			TargetATRMultiple: 2.5,
			StopFallbackPct:   0.05,
			TargetFallbackPct: 0.05,
		},
		Probability: Probability{
			PatternWeight:       0.35,
			SwingWeight:         0.35,
			RRWeight:            0.30,
			SwingScale:          0.8,
			WinRateWeight:       0.4,
			ZScoreWeight:        0.4,
			MeanReversionWeight: 0.2,
			Pattern: Pattern{
				MinRows:      20,
				RSIBand:      10,
				MinMatches:   3,
				Lookahead:    20,
				WinGainPct:   0.02,
				ReturnWindow: 20,
			},
			MeanReversion: MeanReversion{
				Base:            50,
				BelowSMABonus:   20,
				BelowLowerBonus: 25,
			},
			RRTiers: []RRTier{
				{MinRatio: 3, Probability: 0.60},
				{MinRatio: 2, Probability: 0.65},
				{MinRatio: 1.5, Probability: 0.70},
				{MinRatio: 1, Probability: 0.75},
			},
			RRDefault: 0.50,
			Neutral:   50,
		},
		Entry: Entry{
			LowWindow:  5,
			NearLowPct: 0.02,
		},
	}
}
