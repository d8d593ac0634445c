package timescaledb

const createTableSQL = `
CREATE TABLE IF NOT EXISTS telemetry (
    time timestamp WITH TIME ZONE NOT NULL,
    arrayname text NULL,
    arraytype text NULL,
    busvoltage float4 NULL,
    buscurrent float4 NULL,
    outputpower float4 NULL,
    stringcurrent1 float4 NULL,
    stringcurrent2 float4 NULL,
    stringcurrent3 float4 NULL,
    stringcurrent4 float4 NULL,
    paneltemp float4 NULL,
    driveangle float4 NULL,
    sunvectorx float4 NULL,
    sunvectory float4 NULL,
    sunvectorz float4 NULL,
    panelnormalx float4 NULL,
    panelnormaly float4 NULL,
    panelnormalz float4 NULL,
    sundistanceau float4 NULL,
    incidenceangle float4 NULL,
    eclipse boolean NULL,
    predictedpower float4 NULL,
    equilibriumtemp float4 NULL,
    performanceratio float4 NULL
);`

const createExtensionSQL = `CREATE EXTENSION IF NOT EXISTS timescaledb;`

const createHypertableSQL = `SELECT create_hypertable('telemetry', 'time', if_not_exists => true);`

const create1mViewSQL = `CREATE MATERIALIZED VIEW IF NOT EXISTS telemetry_1m
WITH (timescaledb.continuous, timescaledb.materialized_only = false)
AS
SELECT
    time_bucket('1 minute', time) as bucket,
    arrayname,
    arraytype,
    avg(busvoltage) as busvoltage,
	max(busvoltage) as max_busvoltage,
	min(busvoltage) as min_busvoltage,
    avg(buscurrent) as buscurrent,
	max(buscurrent) as max_buscurrent,
	min(buscurrent) as min_buscurrent,
    avg(outputpower) as outputpower,
	max(outputpower) as max_outputpower,
	min(outputpower) as min_outputpower,
    avg(paneltemp) as paneltemp,
	max(paneltemp) as max_paneltemp,
	min(paneltemp) as min_paneltemp,
    avg(sundistanceau) as sundistanceau,
    avg(incidenceangle) as incidenceangle,
    avg(predictedpower) as predictedpower,
    avg(equilibriumtemp) as equilibriumtemp,
    avg(performanceratio) as performanceratio,
	min(performanceratio) as min_performanceratio,
    avg(outputpower) * 60 as period_energy
FROM telemetry
GROUP BY bucket, arrayname, arraytype;`

const create1hViewSQL = `CREATE MATERIALIZED VIEW IF NOT EXISTS telemetry_1h
WITH (timescaledb.continuous, timescaledb.materialized_only = false)
AS
SELECT
    time_bucket('1 hour', time) as bucket,
    arrayname,
    arraytype,
    avg(busvoltage) as busvoltage,
	max(busvoltage) as max_busvoltage,
	min(busvoltage) as min_busvoltage,
    avg(buscurrent) as buscurrent,
	max(buscurrent) as max_buscurrent,
	min(buscurrent) as min_buscurrent,
    avg(outputpower) as outputpower,
	max(outputpower) as max_outputpower,
	min(outputpower) as min_outputpower,
    avg(paneltemp) as paneltemp,
	max(paneltemp) as max_paneltemp,
	min(paneltemp) as min_paneltemp,
    avg(sundistanceau) as sundistanceau,
    avg(incidenceangle) as incidenceangle,
    avg(predictedpower) as predictedpower,
    avg(equilibriumtemp) as equilibriumtemp,
    avg(performanceratio) as performanceratio,
	min(performanceratio) as min_performanceratio,
    avg(outputpower) * 3600 as period_energy
FROM telemetry
GROUP BY bucket, arrayname, arraytype;`

const addAggregationPolicy1mSQL = `SELECT add_continuous_aggregate_policy('telemetry_1m',
    start_offset => INTERVAL '5 minutes',
    end_offset => INTERVAL '1 minute',
    schedule_interval => INTERVAL '1 minute',
    if_not_exists => true);`

const addAggregationPolicy1hSQL = `SELECT add_continuous_aggregate_policy('telemetry_1h',
    start_offset => INTERVAL '3 hours',
    end_offset => INTERVAL '1 hour',
    schedule_interval => INTERVAL '1 hour',
    if_not_exists => true);`
