package main

import (
	"database/sql"
	"encoding/csv"
	"flag"
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	_ "github.com/lib/pq"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// PowerTempSample is one correlated performance-ratio and panel-temperature
// sample pulled from the telemetry hypertable
type PowerTempSample struct {
	Time             time.Time
	PanelTemp        float64
	PerformanceRatio float64
	PowerLoss        float64 // 1 - performance ratio
}

// ModelType represents different thermal compensation models
type ModelType string

const (
	ModelConstant  ModelType = "constant"
	ModelLinear    ModelType = "linear"
	ModelQuadratic ModelType = "quadratic"
	ModelCubic     ModelType = "cubic"
)

// CalibrationResult contains the analysis results for a specific model
type CalibrationResult struct {
	ModelType            ModelType
	ModelName            string
	Coefficients         []float64 // loss = c0 + c1*T + c2*T² + ...
	RSquared             float64
	AdjustedRSquared     float64
	MeanAbsoluteError    float64
	RootMeanSquaredError float64
	AIC                  float64 // Akaike Information Criterion (lower is better)
	BIC                  float64 // Bayesian Information Criterion (lower is better)
	SampleCount          int
	TemperatureRange     [2]float64
	LossRange            [2]float64
}

// ComparisonResults contains all model results for comparison
type ComparisonResults struct {
	Models    []CalibrationResult
	BestByR2  CalibrationResult
	BestByAIC CalibrationResult
	BestByBIC CalibrationResult
}

// DegradationTrend is a linear fit of performance ratio against elapsed days
type DegradationTrend struct {
	RatioPerYear float64
	Intercept    float64
	RSquared     float64
	SampleCount  int
	SpanDays     float64
}

func main() {
	var (
		dbHost    = flag.String("db-host", "localhost", "Database host")
		dbPort    = flag.Int("db-port", 5432, "Database port")
		dbUser    = flag.String("db-user", "postgres", "Database user")
		dbPass    = flag.String("db-pass", "", "Database password")
		dbName    = flag.String("db-name", "telemetry_v1", "Database name")
		arrayName = flag.String("array", "", "Array name to analyze (required)")
		hours     = flag.Int("hours", 168, "Number of hours of data to analyze")
		csvOutput = flag.String("csv", "", "Optional CSV output file path")
	)
	flag.Parse()

	if *arrayName == "" {
		fmt.Fprintf(os.Stderr, "Error: -array is required\n")
		os.Exit(1)
	}

	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		*dbHost, *dbPort, *dbUser, *dbPass, *dbName)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		fmt.Fprintf(os.Stderr, "Error pinging database: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Solar Array Thermal Compensation Calibration\n")
	fmt.Printf("============================================\n\n")
	fmt.Printf("Configuration:\n")
	fmt.Printf("  Array: %s\n", *arrayName)
	fmt.Printf("  Analysis Period: %d hours\n\n", *hours)

	samples := fetchSamples(db, *arrayName, *hours)

	if len(samples) < 10 {
		fmt.Fprintf(os.Stderr, "Error: Not enough data points (%d). Need at least 10.\n", len(samples))
		os.Exit(1)
	}

	fmt.Printf("Collected %d sunlit data points\n\n", len(samples))

	results := testAllModels(samples)

	displayComparison(results)
	displayBestModelDetails(results.BestByAIC)
	generateCompensationCode(results.BestByAIC)
	displayDegradationTrend(fitDegradationTrend(samples))

	if *csvOutput != "" {
		if err := exportCSV(*csvOutput, samples, results.BestByAIC); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing CSV: %v\n", err)
		} else {
			fmt.Printf("\nData exported to: %s\n", *csvOutput)
		}
	}
}

// fetchSamples pulls sunlit readings only: eclipse samples have no meaningful
// performance ratio and would swamp the fit
func fetchSamples(db *sql.DB, arrayName string, hours int) []PowerTempSample {
	query := `
		SELECT
			time,
			paneltemp,
			performanceratio
		FROM telemetry
		WHERE arrayname = $1
		  AND time >= NOW() - INTERVAL '1 hour' * $2
		  AND eclipse = false
		  AND performanceratio IS NOT NULL
		  AND performanceratio > 0
		  AND paneltemp IS NOT NULL
		ORDER BY time
	`

	rows, err := db.Query(query, arrayName, hours)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error querying data: %v\n", err)
		os.Exit(1)
	}
	defer rows.Close()

	var samples []PowerTempSample
	for rows.Next() {
		var s PowerTempSample
		if err := rows.Scan(&s.Time, &s.PanelTemp, &s.PerformanceRatio); err != nil {
			fmt.Fprintf(os.Stderr, "Error scanning row: %v\n", err)
			continue
		}
		s.PowerLoss = 1.0 - s.PerformanceRatio
		samples = append(samples, s)
	}

	return samples
}

func testAllModels(samples []PowerTempSample) ComparisonResults {
	models := []CalibrationResult{
		fitConstantModel(samples),
		fitLinearModel(samples),
		fitPolynomialModel(samples, 2), // Quadratic
		fitPolynomialModel(samples, 3), // Cubic
	}

	var comparison ComparisonResults
	comparison.Models = models

	bestR2 := models[0]
	for _, m := range models {
		if m.RSquared > bestR2.RSquared {
			bestR2 = m
		}
	}
	comparison.BestByR2 = bestR2

	// AIC balances fit quality with model complexity
	bestAIC := models[0]
	for _, m := range models {
		if m.AIC < bestAIC.AIC {
			bestAIC = m
		}
	}
	comparison.BestByAIC = bestAIC

	// BIC penalizes complexity more than AIC
	bestBIC := models[0]
	for _, m := range models {
		if m.BIC < bestBIC.BIC {
			bestBIC = m
		}
	}
	comparison.BestByBIC = bestBIC

	return comparison
}

func fitConstantModel(samples []PowerTempSample) CalibrationResult {
	n := len(samples)

	losses := make([]float64, n)
	for i, s := range samples {
		losses[i] = s.PowerLoss
	}

	// Constant model: loss = c0 (mean loss)
	meanLoss := stat.Mean(losses, nil)

	result := CalibrationResult{
		ModelType:    ModelConstant,
		ModelName:    "Constant Offset",
		Coefficients: []float64{meanLoss},
		SampleCount:  n,
	}

	result.RSquared = 0.0 // Constant model explains no variance
	result.AdjustedRSquared = 0.0
	result.MeanAbsoluteError = calculateMAE(nil, losses, func(t float64) float64 { return meanLoss })
	result.RootMeanSquaredError = calculateRMSE(nil, losses, func(t float64) float64 { return meanLoss })

	k := 1.0 // number of parameters
	result.AIC = calculateAIC(float64(n), result.RootMeanSquaredError, k)
	result.BIC = calculateBIC(float64(n), result.RootMeanSquaredError, k)

	temps := make([]float64, n)
	for i, s := range samples {
		temps[i] = s.PanelTemp
	}
	minTemp, maxTemp := minMax(temps)
	minLoss, maxLoss := minMax(losses)
	result.TemperatureRange = [2]float64{minTemp, maxTemp}
	result.LossRange = [2]float64{minLoss, maxLoss}

	return result
}

func fitLinearModel(samples []PowerTempSample) CalibrationResult {
	n := len(samples)

	temps := make([]float64, n)
	losses := make([]float64, n)
	for i, s := range samples {
		temps[i] = s.PanelTemp
		losses[i] = s.PowerLoss
	}

	// Linear regression: loss = c0 + c1*T
	slope, intercept := stat.LinearRegression(temps, losses, nil, false)

	result := CalibrationResult{
		ModelType:    ModelLinear,
		ModelName:    "Linear",
		Coefficients: []float64{intercept, slope},
		SampleCount:  n,
	}

	predictFunc := func(t float64) float64 {
		return intercept + slope*t
	}

	result.RSquared = calculateRSquared(temps, losses, predictFunc)
	result.AdjustedRSquared = calculateAdjustedRSquared(result.RSquared, float64(n), 2.0)
	result.MeanAbsoluteError = calculateMAE(temps, losses, predictFunc)
	result.RootMeanSquaredError = calculateRMSE(temps, losses, predictFunc)

	k := 2.0 // intercept + slope
	result.AIC = calculateAIC(float64(n), result.RootMeanSquaredError, k)
	result.BIC = calculateBIC(float64(n), result.RootMeanSquaredError, k)

	minTemp, maxTemp := minMax(temps)
	minLoss, maxLoss := minMax(losses)
	result.TemperatureRange = [2]float64{minTemp, maxTemp}
	result.LossRange = [2]float64{minLoss, maxLoss}

	return result
}

func fitPolynomialModel(samples []PowerTempSample, degree int) CalibrationResult {
	n := len(samples)

	temps := make([]float64, n)
	losses := make([]float64, n)
	for i, s := range samples {
		temps[i] = s.PanelTemp
		losses[i] = s.PowerLoss
	}

	// Build Vandermonde matrix for polynomial regression
	X := mat.NewDense(n, degree+1, nil)
	for i := 0; i < n; i++ {
		for j := 0; j <= degree; j++ {
			X.Set(i, j, math.Pow(temps[i], float64(j)))
		}
	}

	y := mat.NewVecDense(n, losses)

	// Solve using QR decomposition
	var qr mat.QR
	qr.Factorize(X)

	coeffs := mat.NewVecDense(degree+1, nil)
	err := qr.SolveVecTo(coeffs, false, y)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error solving polynomial regression: %v\n", err)
		return CalibrationResult{}
	}

	coeff := make([]float64, degree+1)
	for i := 0; i <= degree; i++ {
		coeff[i] = coeffs.AtVec(i)
	}

	modelType := ModelQuadratic
	modelName := "Quadratic"
	if degree == 3 {
		modelType = ModelCubic
		modelName = "Cubic"
	}

	result := CalibrationResult{
		ModelType:    modelType,
		ModelName:    modelName,
		Coefficients: coeff,
		SampleCount:  n,
	}

	predictFunc := func(t float64) float64 {
		pred := 0.0
		for i, c := range coeff {
			pred += c * math.Pow(t, float64(i))
		}
		return pred
	}

	result.RSquared = calculateRSquared(temps, losses, predictFunc)
	result.AdjustedRSquared = calculateAdjustedRSquared(result.RSquared, float64(n), float64(degree+1))
	result.MeanAbsoluteError = calculateMAE(temps, losses, predictFunc)
	result.RootMeanSquaredError = calculateRMSE(temps, losses, predictFunc)

	k := float64(degree + 1)
	result.AIC = calculateAIC(float64(n), result.RootMeanSquaredError, k)
	result.BIC = calculateBIC(float64(n), result.RootMeanSquaredError, k)

	minTemp, maxTemp := minMax(temps)
	minLoss, maxLoss := minMax(losses)
	result.TemperatureRange = [2]float64{minTemp, maxTemp}
	result.LossRange = [2]float64{minLoss, maxLoss}

	return result
}

// fitDegradationTrend regresses performance ratio against elapsed days to
// estimate long-term array degradation
func fitDegradationTrend(samples []PowerTempSample) DegradationTrend {
	n := len(samples)

	days := make([]float64, n)
	ratios := make([]float64, n)
	epoch := samples[0].Time
	for i, s := range samples {
		days[i] = s.Time.Sub(epoch).Hours() / 24
		ratios[i] = s.PerformanceRatio
	}

	slope, intercept := stat.LinearRegression(days, ratios, nil, false)

	trend := DegradationTrend{
		RatioPerYear: slope * 365.25,
		Intercept:    intercept,
		SampleCount:  n,
		SpanDays:     days[n-1],
	}
	trend.RSquared = calculateRSquared(days, ratios, func(d float64) float64 {
		return intercept + slope*d
	})
	return trend
}

func calculateRSquared(x, y []float64, predictFunc func(float64) float64) float64 {
	var sumY float64
	for _, val := range y {
		sumY += val
	}
	meanY := sumY / float64(len(y))

	var ssTot, ssRes float64
	for i := range y {
		var predicted float64
		if x != nil {
			predicted = predictFunc(x[i])
		} else {
			predicted = predictFunc(0)
		}
		ssTot += math.Pow(y[i]-meanY, 2)
		ssRes += math.Pow(y[i]-predicted, 2)
	}

	if ssTot == 0 {
		return 0
	}
	return 1 - (ssRes / ssTot)
}

func calculateAdjustedRSquared(r2, n, k float64) float64 {
	if n-k-1 <= 0 {
		return 0
	}
	return 1 - ((1-r2)*(n-1))/(n-k-1)
}

func calculateMAE(x, y []float64, predictFunc func(float64) float64) float64 {
	var sumAbsError float64
	for i := range y {
		var predicted float64
		if x != nil {
			predicted = predictFunc(x[i])
		} else {
			predicted = predictFunc(0)
		}
		sumAbsError += math.Abs(y[i] - predicted)
	}
	return sumAbsError / float64(len(y))
}

func calculateRMSE(x, y []float64, predictFunc func(float64) float64) float64 {
	var sumSqError float64
	for i := range y {
		var predicted float64
		if x != nil {
			predicted = predictFunc(x[i])
		} else {
			predicted = predictFunc(0)
		}
		sumSqError += math.Pow(y[i]-predicted, 2)
	}
	return math.Sqrt(sumSqError / float64(len(y)))
}

func calculateAIC(n, rmse, k float64) float64 {
	// AIC = 2k + n*ln(SSE/n)
	sse := n * rmse * rmse
	if sse <= 0 {
		return math.Inf(1)
	}
	return 2*k + n*math.Log(sse/n)
}

func calculateBIC(n, rmse, k float64) float64 {
	// BIC = k*ln(n) + n*ln(SSE/n)
	sse := n * rmse * rmse
	if sse <= 0 {
		return math.Inf(1)
	}
	return k*math.Log(n) + n*math.Log(sse/n)
}

func minMax(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

func displayComparison(results ComparisonResults) {
	fmt.Printf("Model Comparison\n")
	fmt.Printf("================\n\n")

	// Sort models by AIC for display
	models := make([]CalibrationResult, len(results.Models))
	copy(models, results.Models)
	sort.Slice(models, func(i, j int) bool {
		return models[i].AIC < models[j].AIC
	})

	fmt.Printf("%-15s | %8s | %8s | %8s | %10s | %10s\n", "Model", "R²", "Adj R²", "RMSE", "AIC", "BIC")
	fmt.Printf("----------------+----------+----------+----------+------------+------------\n")

	for _, m := range models {
		marker := ""
		if m.ModelType == results.BestByAIC.ModelType {
			marker = " ← BEST (AIC)"
		}
		fmt.Printf("%-15s | %8.4f | %8.4f | %8.4f | %10.2f | %10.2f%s\n",
			m.ModelName, m.RSquared, m.AdjustedRSquared, m.RootMeanSquaredError, m.AIC, m.BIC, marker)
	}

	fmt.Printf("\nRecommendation:\n")
	fmt.Printf("  Best model by AIC: %s\n", results.BestByAIC.ModelName)
	if results.BestByAIC.ModelType != results.BestByBIC.ModelType {
		fmt.Printf("  Best model by BIC: %s (more conservative, penalizes complexity)\n", results.BestByBIC.ModelName)
	}

	if results.BestByAIC.RSquared < 0.3 {
		fmt.Printf("\n  ⚠ WARNING: Low R² (%.4f) - temperature may not be the primary loss factor!\n", results.BestByAIC.RSquared)
		fmt.Printf("  Consider other factors: cell degradation, shadowing, drive misalignment\n")
	} else if results.BestByAIC.RSquared < 0.7 {
		fmt.Printf("\n  ℹ Moderate correlation (R²=%.4f) - useful but may not capture all losses\n", results.BestByAIC.RSquared)
	} else {
		fmt.Printf("\n  ✓ Strong correlation (R²=%.4f) - temperature is the primary loss factor\n", results.BestByAIC.RSquared)
	}
	fmt.Println()
}

func displayBestModelDetails(model CalibrationResult) {
	fmt.Printf("Best Model Details (%s)\n", model.ModelName)
	fmt.Printf("=====================\n\n")

	fmt.Printf("Model equation:\n  ")
	switch model.ModelType {
	case ModelConstant:
		fmt.Printf("loss = %.6f\n", model.Coefficients[0])
	case ModelLinear:
		fmt.Printf("loss = %.6f + %.6f × T\n", model.Coefficients[0], model.Coefficients[1])
	case ModelQuadratic:
		fmt.Printf("loss = %.6f + %.6f × T + %.6f × T²\n",
			model.Coefficients[0], model.Coefficients[1], model.Coefficients[2])
	case ModelCubic:
		fmt.Printf("loss = %.6f + %.6f × T + %.6f × T² + %.6f × T³\n",
			model.Coefficients[0], model.Coefficients[1], model.Coefficients[2], model.Coefficients[3])
	}
	fmt.Printf("  (T in °C, loss as fraction of predicted power)\n\n")

	fmt.Printf("Quality Metrics:\n")
	fmt.Printf("  R² = %.4f\n", model.RSquared)
	fmt.Printf("  Adjusted R² = %.4f\n", model.AdjustedRSquared)
	fmt.Printf("  RMSE = %.4f (%.2f%% of predicted power)\n", model.RootMeanSquaredError, model.RootMeanSquaredError*100)
	fmt.Printf("  MAE = %.4f (%.2f%% of predicted power)\n", model.MeanAbsoluteError, model.MeanAbsoluteError*100)
	fmt.Printf("  Sample size = %d\n\n", model.SampleCount)

	fmt.Printf("Temperature Impact Examples:\n")
	for _, temp := range []float64{-20, 0, 25, 50, 75} {
		loss := evaluateModel(model, temp)
		fmt.Printf("  At %4.0f°C: %6.2f%% power loss\n", temp, loss*100)
	}
	fmt.Println()
}

func evaluateModel(model CalibrationResult, temp float64) float64 {
	result := 0.0
	for i, coeff := range model.Coefficients {
		result += coeff * math.Pow(temp, float64(i))
	}
	return result
}

func generateCompensationCode(model CalibrationResult) {
	fmt.Printf("Go Code Implementation\n")
	fmt.Printf("======================\n\n")

	fmt.Printf("// Thermal compensation function - %s model\n", model.ModelName)
	fmt.Printf("// Calibrated on %d samples, R² = %.4f, RMSE = %.4f\n",
		model.SampleCount, model.RSquared, model.RootMeanSquaredError)
	fmt.Printf("func compensatePredictedPowerForTemperature(predictedPower float32, panelTemp float32) float32 {\n")

	switch model.ModelType {
	case ModelConstant:
		fmt.Printf("    // Constant offset model\n")
		fmt.Printf("    const loss = %.6f\n", model.Coefficients[0])
		fmt.Printf("    compensated := predictedPower * float32(1-loss)\n")

	case ModelLinear:
		fmt.Printf("    // Linear model: loss = c0 + c1*T\n")
		fmt.Printf("    const c0 = %.6f\n", model.Coefficients[0])
		fmt.Printf("    const c1 = %.6f\n", model.Coefficients[1])
		fmt.Printf("    expectedLoss := c0 + c1*float64(panelTemp)\n")
		fmt.Printf("    compensated := predictedPower * float32(1-expectedLoss)\n")

	case ModelQuadratic:
		fmt.Printf("    // Quadratic model: loss = c0 + c1*T + c2*T²\n")
		fmt.Printf("    const c0 = %.6f\n", model.Coefficients[0])
		fmt.Printf("    const c1 = %.6f\n", model.Coefficients[1])
		fmt.Printf("    const c2 = %.6f\n", model.Coefficients[2])
		fmt.Printf("    t := float64(panelTemp)\n")
		fmt.Printf("    expectedLoss := c0 + c1*t + c2*t*t\n")
		fmt.Printf("    compensated := predictedPower * float32(1-expectedLoss)\n")

	case ModelCubic:
		fmt.Printf("    // Cubic model: loss = c0 + c1*T + c2*T² + c3*T³\n")
		fmt.Printf("    const c0 = %.6f\n", model.Coefficients[0])
		fmt.Printf("    const c1 = %.6f\n", model.Coefficients[1])
		fmt.Printf("    const c2 = %.6f\n", model.Coefficients[2])
		fmt.Printf("    const c3 = %.6f\n", model.Coefficients[3])
		fmt.Printf("    t := float64(panelTemp)\n")
		fmt.Printf("    expectedLoss := c0 + c1*t + c2*t*t + c3*t*t*t\n")
		fmt.Printf("    compensated := predictedPower * float32(1-expectedLoss)\n")
	}

	fmt.Printf("    return compensated\n")
	fmt.Printf("}\n\n")

	fmt.Printf("// Usage in your enrichment code:\n")
	fmt.Printf("// compensated := compensatePredictedPowerForTemperature(predictedPower, panelTemp)\n")
	fmt.Printf("// performanceRatio := outputPower / compensated\n")
}

func displayDegradationTrend(trend DegradationTrend) {
	fmt.Printf("\nDegradation Trend\n")
	fmt.Printf("=================\n\n")
	fmt.Printf("  Performance ratio change: %+.4f per year\n", trend.RatioPerYear)
	fmt.Printf("  R² = %.4f over %.1f days (%d samples)\n", trend.RSquared, trend.SpanDays, trend.SampleCount)
	if trend.SpanDays < 30 {
		fmt.Printf("  ⚠ Less than 30 days of data - trend estimate is unreliable\n")
	} else if trend.RatioPerYear < -0.05 {
		fmt.Printf("  ⚠ Degradation exceeds 5%%/year - investigate cell damage or contamination\n")
	}
}

func exportCSV(filename string, samples []PowerTempSample, model CalibrationResult) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"Time", "PanelTemp_C", "PerformanceRatio", "PowerLoss", "Predicted_Loss", "Residual"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, s := range samples {
		predicted := evaluateModel(model, s.PanelTemp)
		residual := s.PowerLoss - predicted

		record := []string{
			s.Time.Format(time.RFC3339),
			fmt.Sprintf("%.2f", s.PanelTemp),
			fmt.Sprintf("%.4f", s.PerformanceRatio),
			fmt.Sprintf("%.4f", s.PowerLoss),
			fmt.Sprintf("%.4f", predicted),
			fmt.Sprintf("%.4f", residual),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return nil
}
