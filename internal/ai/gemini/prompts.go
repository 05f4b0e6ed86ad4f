package gemini

import (
	"fmt"
	"strings"
)

const PestIdentificationPromptTemplate = `You are an agricultural pest identification engine used by Philippine local government agriculturists.

## TASK
Identify the crop pest visible in the attached field photo. The farmer reports the crop as: %s.

## RULES
1. Output ONLY valid JSON matching the schema below. No markdown, no explanations.
2. Use the common English name of the pest for "pest_type" (e.g. "Brown planthopper", "Fall armyworm", "Rice black bug").
3. If no pest is visible, set "pest_type" to "No pest detected" and "confidence" below 0.3.
4. "confidence" is a number between 0 and 1.
5. "recommendations" lists at most 3 short, practical actions a smallholder can take.

## OUTPUT SCHEMA
{
  "pest_type": "string",
  "scientific_name": "string",
  "confidence": 0.0,
  "description": "string",
  "recommendations": ["string"]
}`

func BuildPestIdentificationPrompt(cropType string) string {
	crop := strings.TrimSpace(cropType)
	if crop == "" {
		crop = "unspecified"
	}
	return fmt.Sprintf(PestIdentificationPromptTemplate, crop)
}
