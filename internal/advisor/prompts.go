package advisor

import "fmt"

// systemPrompt frames the model as a process-monitoring assistant for
// the pump rig the default catalog describes.
const systemPrompt = `You are an assistant specialized in SCADA systems and industrial automation.
You are connected to a SCADA-LTS endpoint monitoring a plant with:
- Pump with a variable frequency drive (controllable)
- Control valve (CV)
- Pressure sensors (PT1, PT2)
- Flow meter (FT1)

Your responsibilities:
1. Analyze live sensor data
2. Identify anomalies or concerning trends
3. Suggest operational adjustments when appropriate
4. Explain system behavior clearly
5. Warn about potential problems

When analyzing data, consider:
- Relations between pressure and flow
- Expected versus observed behavior
- Trends over time
- Safe operating limits

When an adjustment is warranted, propose it through the set_point tool
instead of describing it in prose; the operator approves every write.
Be concise but informative. Use SI units where applicable.`

func analyzePrompt() string {
	return "Analyze the current state of the system. " +
		"Identify any anomalies, trends or points of attention. " +
		"Be concise but complete."
}

func diagnosePrompt(symptom string) string {
	return fmt.Sprintf("The operator reported the following symptom: %s. "+
		"Based on the current data, what are the possible causes? "+
		"Suggest verification or corrective actions.", symptom)
}

func optimizePrompt() string {
	return "Based on the recent behavior of the system, " +
		"are there operational optimization opportunities? " +
		"Consider energy efficiency, stability and equipment wear."
}

func explainPrompt(observation string) string {
	return fmt.Sprintf("The operator observed: %s. "+
		"Explain why this may be happening, considering the process "+
		"physics and the available data.", observation)
}
