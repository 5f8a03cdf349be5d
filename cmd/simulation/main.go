package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/haulbridge/freightex-api/internal/auction"
	"github.com/haulbridge/freightex-api/internal/auth"
	"github.com/haulbridge/freightex-api/internal/database"
	"github.com/haulbridge/freightex-api/internal/fleet"
	"github.com/haulbridge/freightex-api/internal/settlement"
	"github.com/haulbridge/freightex-api/internal/types"
	"github.com/haulbridge/freightex-api/pkg/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	minExchanges  = 10
	maxExchanges  = 60
	numWorkers    = 5
	numCarriers   = 4
	serverAddress = "http://localhost:8080"

	simShipperID        = "SHIPPER_SIM"
	simShipperAPIKey    = "sim-shipper-key"
	simShipperAPISecret = "sim-shipper-secret"
)

var lanes = [][2]string{
	{"Rotterdam", "Munich"},
	{"Hamburg", "Lyon"},
	{"Antwerp", "Milan"},
	{"Gdansk", "Vienna"},
	{"Barcelona", "Frankfurt"},
}

var cargoTypes = []string{"GENERAL", "REFRIGERATED", "HAZMAT", "BULK"}

// init configures the logger for the simulation with pretty printing and timestamp
func init() {
	// Configure pretty logging
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// routeStats tracks performance statistics for an API endpoint
type routeStats struct {
	name       string
	durations  []time.Duration
	totalCalls int
	failures   int
}

// addDuration records a new duration measurement for the route
func (rs *routeStats) addDuration(d time.Duration) {
	rs.durations = append(rs.durations, d)
	rs.totalCalls++
}

// calculate computes performance statistics from recorded durations
// Returns min, max, mean, median, 95th percentile, and 99th percentile durations
func (rs *routeStats) calculate() (min, max, mean, median, p95, p99 time.Duration) {
	if len(rs.durations) == 0 {
		return 0, 0, 0, 0, 0, 0
	}

	// Sort durations for percentile calculations
	sort.Slice(rs.durations, func(i, j int) bool {
		return rs.durations[i] < rs.durations[j]
	})

	min = rs.durations[0]
	max = rs.durations[len(rs.durations)-1]

	// Calculate mean
	var sum time.Duration
	for _, d := range rs.durations {
		sum += d
	}
	mean = sum / time.Duration(len(rs.durations))

	// Calculate median
	median = rs.durations[len(rs.durations)/2]

	// Calculate percentiles
	p95idx := int(math.Ceil(float64(len(rs.durations))*0.95)) - 1
	p99idx := int(math.Ceil(float64(len(rs.durations))*0.99)) - 1
	p95 = rs.durations[p95idx]
	p99 = rs.durations[p99idx]

	return
}

// exchangePayload mirrors the create-exchange response body. Money fields
// arrive as quoted decimal strings.
type exchangePayload struct {
	ExchangeID       string `json:"exchange_id"`
	ExchangeType     string `json:"exchange_type"`
	OfferPrice       string `json:"offer_price"`
	LeadingBidID     string `json:"leading_bid_id"`
	LeadingBidAmount string `json:"leading_bid_amount"`
	BidsSubmitted    int    `json:"bids_submitted"`
	Status           string `json:"status"`
	Savings          string `json:"savings"`
}

type bidPayload struct {
	BidID       string `json:"bid_id"`
	Amount      string `json:"amount"`
	BakedAmount string `json:"baked_amount"`
	Status      string `json:"status"`
}

type acceptPayload struct {
	BookingAmount      string `json:"booking_amount"`
	PlatformCommission string `json:"platform_commission"`
	CarrierPayable     string `json:"carrier_payable"`
	Savings            string `json:"savings"`
	Ledger             struct {
		LedgerID string `json:"ledger_id"`
	} `json:"ledger"`
	Shipments []struct {
		ShipmentID string `json:"shipment_id"`
	} `json:"shipments"`
}

// simulationClient handles HTTP communication with the marketplace API
type simulationClient struct {
	baseURL       string
	shipperToken  string
	carrierTokens []string
	client        *http.Client
	stats         map[string]*routeStats
}

// newSimulationClient creates and initializes a new simulation client.
// It authenticates the shipper and every carrier principal up front.
func newSimulationClient() (*simulationClient, error) {
	client := &http.Client{
		Timeout: 10 * time.Second,
	}

	sc := &simulationClient{
		baseURL: serverAddress,
		client:  client,
		stats: map[string]*routeStats{
			"auth":   {name: "Authentication"},
			"create": {name: "Create Exchange"},
			"bid":    {name: "Submit Bid"},
			"get":    {name: "Get Exchange"},
			"accept": {name: "Accept Bid"},
			"ledger": {name: "Get Ledger"},
		},
	}

	token, err := sc.authenticate(simShipperAPIKey, simShipperAPISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate shipper: %w", err)
	}
	sc.shipperToken = token

	for i := 1; i <= numCarriers; i++ {
		token, err := sc.authenticate(carrierAPIKey(i), carrierAPISecret(i))
		if err != nil {
			return nil, fmt.Errorf("failed to authenticate carrier %d: %w", i, err)
		}
		sc.carrierTokens = append(sc.carrierTokens, token)
	}

	return sc, nil
}

func carrierID(i int) string        { return fmt.Sprintf("CARRIER_SIM_%d", i) }
func carrierAPIKey(i int) string    { return fmt.Sprintf("sim-carrier-key-%d", i) }
func carrierAPISecret(i int) string { return fmt.Sprintf("sim-carrier-secret-%d", i) }

// authenticate performs API authentication and returns a JWT token
func (sc *simulationClient) authenticate(apiKey, apiSecret string) (string, error) {
	start := time.Now()
	defer func() {
		sc.stats["auth"].addDuration(time.Since(start))
	}()

	credentials := map[string]string{
		"api_key":    apiKey,
		"api_secret": apiSecret,
	}

	body, err := json.Marshal(credentials)
	if err != nil {
		return "", err
	}

	resp, err := sc.client.Post(
		fmt.Sprintf("%s/api/v1/auth/token", sc.baseURL),
		"application/json",
		bytes.NewBuffer(body),
	)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("authentication failed with status: %d", resp.StatusCode)
	}

	var result struct {
		Success bool `json:"success"`
		Data    struct {
			Token string `json:"jwt_token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}

	return result.Data.Token, nil
}

// doJSON issues an authenticated request and decodes the standard response
// envelope into out.
func (sc *simulationClient) doJSON(method, url, token string, payload interface{}, out interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(raw)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := sc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	log.Debug().Str("url", url).Str("response", string(respBody)).Msg("API response")

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("%s failed with status %d: %s", url, resp.StatusCode, string(respBody))
	}

	envelope := struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}{}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("failed to decode response: %w, body: %s", err, string(respBody))
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("failed to decode response data: %w, body: %s", err, string(respBody))
		}
	}
	return nil
}

// createExchange opens a new auction and returns its payload
func (sc *simulationClient) createExchange(req map[string]interface{}) (*exchangePayload, error) {
	start := time.Now()
	defer func() {
		sc.stats["create"].addDuration(time.Since(start))
	}()

	var exchange exchangePayload
	err := sc.doJSON("POST", fmt.Sprintf("%s/api/v1/exchanges", sc.baseURL), sc.shipperToken, req, &exchange)
	if err != nil {
		sc.stats["create"].failures++
		return nil, err
	}
	if exchange.ExchangeID == "" {
		sc.stats["create"].failures++
		return nil, fmt.Errorf("no exchange ID in response")
	}
	return &exchange, nil
}

// submitBid places a carrier bid on an exchange
func (sc *simulationClient) submitBid(exchangeID string, carrierIdx int, amount string) (*bidPayload, error) {
	start := time.Now()
	defer func() {
		sc.stats["bid"].addDuration(time.Since(start))
	}()

	var bid bidPayload
	err := sc.doJSON(
		"POST",
		fmt.Sprintf("%s/api/v1/exchanges/%s/bids", sc.baseURL, exchangeID),
		sc.carrierTokens[carrierIdx],
		map[string]string{"amount": amount},
		&bid,
	)
	if err != nil {
		sc.stats["bid"].failures++
		return nil, err
	}
	return &bid, nil
}

// getExchange retrieves the current auction state
func (sc *simulationClient) getExchange(exchangeID string) (*exchangePayload, error) {
	start := time.Now()
	defer func() {
		sc.stats["get"].addDuration(time.Since(start))
	}()

	var exchange exchangePayload
	err := sc.doJSON("GET", fmt.Sprintf("%s/api/v1/exchanges/%s", sc.baseURL, exchangeID), sc.shipperToken, nil, &exchange)
	if err != nil {
		sc.stats["get"].failures++
		return nil, err
	}
	return &exchange, nil
}

// acceptBid settles the exchange on the given bid
func (sc *simulationClient) acceptBid(bidID string) (*acceptPayload, error) {
	start := time.Now()
	defer func() {
		sc.stats["accept"].addDuration(time.Since(start))
	}()

	var result acceptPayload
	err := sc.doJSON("POST", fmt.Sprintf("%s/api/v1/bids/%s/accept", sc.baseURL, bidID), sc.shipperToken, nil, &result)
	if err != nil {
		sc.stats["accept"].failures++
		return nil, err
	}
	if result.Ledger.LedgerID == "" {
		sc.stats["accept"].failures++
		return nil, fmt.Errorf("no ledger ID in acceptance response")
	}
	return &result, nil
}

// getLedger retrieves the settlement ledger for a closed exchange
func (sc *simulationClient) getLedger(exchangeID string) error {
	start := time.Now()
	defer func() {
		sc.stats["ledger"].addDuration(time.Since(start))
	}()

	err := sc.doJSON("GET", fmt.Sprintf("%s/api/v1/exchanges/%s/ledger", sc.baseURL, exchangeID), sc.shipperToken, nil, nil)
	if err != nil {
		sc.stats["ledger"].failures++
	}
	return err
}

// printPerformanceStats outputs formatted performance statistics for all API endpoints
func (sc *simulationClient) printPerformanceStats() {
	fmt.Println("\nAPI Performance Statistics")
	fmt.Println(strings.Repeat("-", 100))
	fmt.Printf("%-20s %10s %10s %10s %10s %10s %10s %10s %10s\n",
		"Endpoint", "Calls", "Errors", "Min", "Max", "Mean", "Median", "P95", "P99")
	fmt.Println(strings.Repeat("-", 100))

	for _, stats := range sc.stats {
		min, max, mean, median, p95, p99 := stats.calculate()
		fmt.Printf("%-20s %10d %10d %10s %10s %10s %10s %10s %10s\n",
			stats.name,
			stats.totalCalls,
			stats.failures,
			min.Round(time.Millisecond),
			max.Round(time.Millisecond),
			mean.Round(time.Millisecond),
			median.Round(time.Millisecond),
			p95.Round(time.Millisecond),
			p99.Round(time.Millisecond))
	}
	fmt.Println(strings.Repeat("-", 100))
}

// randomExchangeRequest builds a create-exchange body: mostly spot loads with
// the occasional recurring lane.
func randomExchangeRequest() map[string]interface{} {
	lane := lanes[rand.Intn(len(lanes))]
	offer := float64(rand.Intn(2000) + 500)

	req := map[string]interface{}{
		"exchange_type":          types.ExchangeTypeSpot,
		"origin":                 lane[0],
		"destination":            lane[1],
		"cargo_type":             cargoTypes[rand.Intn(len(cargoTypes))],
		"equipment_type":         "DRY_VAN",
		"min_insurance_coverage": "50000.00",
		"offer_price":            fmt.Sprintf("%.2f", offer),
		"distance_km":            float64(rand.Intn(1500) + 200),
		"transit_time_hours":     float64(rand.Intn(40) + 8),
		"start_date":             time.Now().AddDate(0, 0, rand.Intn(10)+1).Format(time.RFC3339),
	}

	// Roughly a third of the traffic is recurring lane commitments.
	if rand.Intn(3) == 0 {
		start := time.Now().AddDate(0, 0, 7)
		req["exchange_type"] = types.ExchangeTypeLane
		req["offer_price"] = fmt.Sprintf("%.2f", offer*10)
		req["frequency"] = "DAILY"
		req["skip_weekends"] = true
		req["start_date"] = start.Format(time.RFC3339)
		req["end_date"] = start.AddDate(0, 0, 14).Format(time.RFC3339)
	}

	return req
}

// main runs the marketplace simulation
// It starts a local API server and simulates shippers and carriers competing
// through the full auction-to-settlement flow
func main() {
	// Start the server in a goroutine
	go func() {
		if err := startServer(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for server to start
	time.Sleep(2 * time.Second)

	// Initialize simulation client
	simClient, err := newSimulationClient()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize simulation client")
	}

	// Generate random number of exchanges to run
	targetExchanges := rand.Intn(maxExchanges-minExchanges) + minExchanges
	log.Info().Int("target_exchanges", targetExchanges).Msg("Starting simulation")

	// Channel to collect exchange IDs
	exchangesChan := make(chan string, targetExchanges)
	var wg sync.WaitGroup

	// Start worker goroutines
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			createExchangesHTTP(workerID, targetExchanges/numWorkers, simClient, exchangesChan)
		}(i)
	}

	// Wait for all exchanges to be created
	wg.Wait()
	close(exchangesChan)

	// Collect all exchange IDs
	var exchangeIDs []string
	for exchangeID := range exchangesChan {
		exchangeIDs = append(exchangeIDs, exchangeID)
	}

	log.Info().Int("exchanges_created", len(exchangeIDs)).Msg("All exchanges created")

	// Collect statistics during processing
	stats := struct {
		TotalExchanges   int
		BidsPlaced       int
		Settled          int
		FailedBids       int
		FailedSettlement int
		TotalBooked      float64
		TotalSavings     float64
		StartTime        time.Time
		Types            map[string]int
	}{
		StartTime: time.Now(),
		Types:     make(map[string]int),
	}
	stats.TotalExchanges = len(exchangeIDs)

	// Run the auction on every exchange: a handful of carriers compete
	// downward, the shipper accepts the leader, and the ledger is read back.
	for _, exchangeID := range exchangeIDs {
		exchange, err := simClient.getExchange(exchangeID)
		if err != nil {
			log.Error().Err(err).Str("exchange_id", exchangeID).Msg("Failed to load exchange")
			continue
		}
		stats.Types[exchange.ExchangeType]++

		offer, _ := strconv.ParseFloat(exchange.OfferPrice, 64)
		numBids := rand.Intn(numCarriers) + 1
		for b := 0; b < numBids; b++ {
			// Carriers undercut the shipper's offer by up to 40%.
			raw := offer * (0.60 + rand.Float64()*0.35)
			carrierIdx := rand.Intn(numCarriers)
			bid, err := simClient.submitBid(exchangeID, carrierIdx, fmt.Sprintf("%.2f", raw))
			if err != nil {
				log.Error().Err(err).
					Str("exchange_id", exchangeID).
					Str("carrier_id", carrierID(carrierIdx+1)).
					Msg("Failed to submit bid")
				stats.FailedBids++
				continue
			}
			stats.BidsPlaced++
			log.Info().
				Str("exchange_id", exchangeID).
				Str("bid_id", bid.BidID).
				Str("amount", bid.Amount).
				Str("baked_amount", bid.BakedAmount).
				Str("status", bid.Status).
				Msg("Bid submitted")
		}

		// Reload to learn the current leader.
		exchange, err = simClient.getExchange(exchangeID)
		if err != nil || exchange.LeadingBidID == "" {
			log.Error().Err(err).Str("exchange_id", exchangeID).Msg("No leading bid to accept")
			stats.FailedSettlement++
			continue
		}

		result, err := simClient.acceptBid(exchange.LeadingBidID)
		if err != nil {
			log.Error().Err(err).
				Str("exchange_id", exchangeID).
				Str("bid_id", exchange.LeadingBidID).
				Msg("Failed to accept bid")
			stats.FailedSettlement++
			continue
		}
		stats.Settled++

		booked, _ := strconv.ParseFloat(result.BookingAmount, 64)
		savings, _ := strconv.ParseFloat(result.Savings, 64)
		stats.TotalBooked += booked
		stats.TotalSavings += savings

		log.Info().
			Str("exchange_id", exchangeID).
			Str("ledger_id", result.Ledger.LedgerID).
			Str("booking_amount", result.BookingAmount).
			Str("platform_commission", result.PlatformCommission).
			Str("carrier_payable", result.CarrierPayable).
			Int("shipments", len(result.Shipments)).
			Msg("Exchange settled")

		if err := simClient.getLedger(exchangeID); err != nil {
			log.Error().Err(err).Str("exchange_id", exchangeID).Msg("Failed to read ledger")
		}
	}

	// Print summary
	duration := time.Since(stats.StartTime)
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("MARKETPLACE SIMULATION SUMMARY")
	fmt.Println(strings.Repeat("=", 80))

	fmt.Printf(`
Exchange Statistics
-------------------
Total Exchanges:   %d
Bids Placed:       %d
Settled:           %d
Failed Bids:       %d
Failed Settlement: %d
Total Booked:      $%.2f
Shipper Savings:   $%.2f
Duration:          %v

Exchange Type Distribution
--------------------------
`, stats.TotalExchanges, stats.BidsPlaced, stats.Settled,
		stats.FailedBids, stats.FailedSettlement,
		stats.TotalBooked, stats.TotalSavings, duration.Round(time.Millisecond))

	// Print type distribution with simple ASCII bar chart
	for exchangeType, count := range stats.Types {
		barLength := int(float64(count) / float64(stats.TotalExchanges) * 20)
		bar := strings.Repeat("#", barLength)
		fmt.Printf("%-6s: %s (%d)\n", exchangeType, bar, count)
	}

	fmt.Println("\n" + strings.Repeat("=", 80))

	// Success rate calculation
	successRate := float64(stats.Settled) / float64(stats.TotalExchanges) * 100
	log.Info().
		Float64("success_rate", successRate).
		Int("total_exchanges", stats.TotalExchanges).
		Int("settled", stats.Settled).
		Float64("total_booked", stats.TotalBooked).
		Dur("duration", duration).
		Msg("Simulation completed")

	simClient.printPerformanceStats()
}

// createExchangesHTTP generates and submits random exchanges to the API
// Runs as a worker goroutine, sending created exchange IDs to exchangesChan
func createExchangesHTTP(workerID, numExchanges int, simClient *simulationClient, exchangesChan chan<- string) {
	for i := 0; i < numExchanges; i++ {
		req := randomExchangeRequest()

		exchange, err := simClient.createExchange(req)
		if err != nil {
			log.Error().Err(err).
				Int("worker_id", workerID).
				Msg("Failed to create exchange")
			continue
		}

		exchangesChan <- exchange.ExchangeID
		log.Info().
			Int("worker_id", workerID).
			Str("exchange_id", exchange.ExchangeID).
			Str("exchange_type", exchange.ExchangeType).
			Str("offer_price", exchange.OfferPrice).
			Msg("Exchange created")

		// Random sleep between exchanges
		time.Sleep(time.Duration(rand.Intn(500)) * time.Millisecond)
	}
}

// seedDirectory ensures the simulation's shipper, carriers, accounts and
// fleet records exist. Idempotent across runs.
func seedDirectory(db *gorm.DB) error {
	shipper := types.Shipper{
		ShipperID: simShipperID,
		Name:      "Simulated Shipper",
		Verified:  true,
		Active:    true,
	}
	if err := db.Where("shipper_id = ?", shipper.ShipperID).FirstOrCreate(&shipper).Error; err != nil {
		return err
	}
	shipperAccount := types.FinancialAccount{
		AccountID:     "ACC_SIM_SHIPPER",
		ShipperID:     simShipperID,
		PaymentMode:   types.PaymentModePrepay,
		PaymentTerm:   "NET_15",
		CreditBalance: decimal.NewFromInt(10_000_000),
		Verified:      true,
		Active:        true,
	}
	if err := db.Where("account_id = ?", shipperAccount.AccountID).FirstOrCreate(&shipperAccount).Error; err != nil {
		return err
	}

	for i := 1; i <= numCarriers; i++ {
		carrier := types.Carrier{
			CarrierID:         carrierID(i),
			Name:              fmt.Sprintf("Simulated Carrier %d", i),
			Verified:          true,
			Active:            true,
			InsuranceCoverage: decimal.NewFromInt(1_000_000),
		}
		if err := db.Where("carrier_id = ?", carrier.CarrierID).FirstOrCreate(&carrier).Error; err != nil {
			return err
		}
		account := types.CarrierFinancialAccount{
			AccountID:   fmt.Sprintf("ACC_SIM_CARRIER_%d", i),
			CarrierID:   carrier.CarrierID,
			PaymentTerm: "EOM",
			Verified:    true,
			Active:      true,
		}
		if err := db.Where("account_id = ?", account.AccountID).FirstOrCreate(&account).Error; err != nil {
			return err
		}
		vehicle := types.Vehicle{
			VehicleID: fmt.Sprintf("VEH_SIM_%d", i),
			CarrierID: carrier.CarrierID,
			Plate:     fmt.Sprintf("SIM-%03d", i),
			Active:    true,
		}
		if err := db.Where("vehicle_id = ?", vehicle.VehicleID).FirstOrCreate(&vehicle).Error; err != nil {
			return err
		}
		driver := types.Driver{
			DriverID:  fmt.Sprintf("DRV_SIM_%d", i),
			CarrierID: carrier.CarrierID,
			Name:      fmt.Sprintf("Driver %d", i),
			Active:    true,
		}
		if err := db.Where("driver_id = ?", driver.DriverID).FirstOrCreate(&driver).Error; err != nil {
			return err
		}
	}

	return nil
}

// startServer initializes and starts the marketplace API server
// Sets up all required services, handlers and routes
func startServer() error {
	// Initialize database
	db, err := database.NewDatabase()
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := seedDirectory(db); err != nil {
		return fmt.Errorf("failed to seed directory: %w", err)
	}

	// Initialize services
	authService := auth.NewService("freightex-secret-key")
	auctionService := auction.NewService(db)
	fleetService := fleet.NewService(db)
	settlementService := settlement.NewService(db, fleetService, auctionService)

	// Register simulation credentials
	authService.RegisterAPICredentials(simShipperAPIKey, simShipperAPISecret, simShipperID, auth.RoleShipper)
	for i := 1; i <= numCarriers; i++ {
		authService.RegisterAPICredentials(carrierAPIKey(i), carrierAPISecret(i), carrierID(i), auth.RoleCarrier)
	}

	// Initialize router
	router := gin.Default()
	authHandlers := auth.NewGinHandlers(authService)
	auctionHandlers := auction.NewGinHandlers(auctionService)
	settlementHandlers := settlement.NewGinHandlers(settlementService)

	// Setup routes
	setupRoutes(router, authHandlers, auctionHandlers, settlementHandlers)

	// Start the server
	return router.Run(":8080")
}

// setupRoutes configures all API endpoints and their handlers
// Mirrors the production routing, including the JWT middleware and role
// checks, so the simulation exercises the real request path.
func setupRoutes(
	router *gin.Engine,
	authHandlers *auth.GinHandlers,
	auctionHandlers *auction.GinHandlers,
	settlementHandlers *settlement.GinHandlers,
) {
	v1 := router.Group("/api/v1")
	{
		// Auth routes
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/token", authHandlers.GenerateTokenHandler())
		}

		// Public board
		listings := v1.Group("/listings")
		{
			listings.GET("", auctionHandlers.ListListingsHandler())
		}

		// Exchange routes
		exchanges := v1.Group("/exchanges")
		exchanges.Use(middleware.JWTAuth())
		{
			exchanges.POST("", middleware.RequireRole(auth.RoleShipper), auctionHandlers.CreateExchangeHandler())
			exchanges.GET("/:exchange_id", auctionHandlers.GetExchangeHandler())
			exchanges.GET("/:exchange_id/bids", auctionHandlers.GetBidsHandler())
			exchanges.POST("/:exchange_id/bids", middleware.RequireRole(auth.RoleCarrier), auctionHandlers.SubmitBidHandler())
			exchanges.POST("/:exchange_id/cancel", middleware.RequireRole(auth.RoleShipper), settlementHandlers.CancelExchangeHandler())
			exchanges.GET("/:exchange_id/ledger", settlementHandlers.GetLedgerHandler())
		}

		// Bid acceptance
		bids := v1.Group("/bids")
		bids.Use(middleware.JWTAuth())
		{
			bids.POST("/:bid_id/accept", middleware.RequireRole(auth.RoleShipper), settlementHandlers.AcceptBidHandler())
		}
	}
}
