package critic

import "strings"

// SystemPrompt frames the model as a thesis supervisor.
const SystemPrompt = `Je bent een kritische scriptiebegeleider in het hoger beroepsonderwijs. Je beoordeelt teksten van studenten op helderheid, onderbouwing en zakelijke schrijfstijl.`

// CritiquePrompt is the instruction placed before the section text.
const CritiquePrompt = `Beoordeel de onderstaande tekst. Noem alleen passages die echt verbeterd moeten worden: vage of ononderbouwde beweringen, onlogische redeneringen, informeel taalgebruik of letterlijk overgenomen wetteksten.

Antwoordregels:
- Geef per passage precies één regel in de vorm: "letterlijk citaat" : uitleg
- Het citaat moet letterlijk en volledig in de tekst voorkomen, zonder aanpassingen.
- Houd de uitleg korter dan 200 tekens.
- Noem maximaal 5 passages.
- Als er niets te verbeteren is, antwoord dan alleen met: OK

Geef geen inleiding of samenvatting.`

// BuildPrompt wraps one chunk of section text in the critique instructions.
func BuildPrompt(text string) string {
	var sb strings.Builder
	sb.WriteString(CritiquePrompt)
	sb.WriteString("\n\n---\n")
	sb.WriteString(strings.TrimSpace(text))
	sb.WriteString("\n---")
	return sb.String()
}
