// Package prompts holds the completion prompts used to pull structured
// maintenance data out of carrier emails. The prompts are Spanish because
// carrier notifications arrive in Spanish.
package prompts

import "fmt"

const extractionInstructions = `Eres un asistente que extrae datos de correos de mantenimiento de proveedores de telecomunicaciones.
Del siguiente correo extrae exactamente estos campos y responde UNICAMENTE con un objeto JSON:

- "inicio": fecha y hora de inicio de la ventana de mantenimiento (formato AAAA-MM-DD HH:MM)
- "fin": fecha y hora de fin de la ventana de mantenimiento (formato AAAA-MM-DD HH:MM)
- "tipo": tipo de trabajo ("Programada" o "Emergencia")
- "afectacion": tiempo estimado de afectacion del servicio
- "descripcion": descripcion breve de los trabajos
- "ids": lista de identificadores de servicios o circuitos afectados

Si un campo no aparece en el correo usa null. No inventes identificadores.`

const extractionExample = `Ejemplo:

Correo:
Estimado cliente, le informamos una ventana de mantenimiento programada.
Inicio: 2024-03-10 02:00
Fin: 2024-03-10 06:00
Servicios afectados: CRT-000123, CRT-000456

Respuesta:
{"inicio": "2024-03-10 02:00", "fin": "2024-03-10 06:00", "tipo": "Programada", "afectacion": null, "descripcion": null, "ids": ["CRT-000123", "CRT-000456"]}`

// Extraction builds the first-attempt prompt for a cleaned email body.
func Extraction(body string) string {
	return fmt.Sprintf("%s\n\n%s\n\nCorreo:\n%s\n\nRespuesta:", extractionInstructions, extractionExample, body)
}

// ExtractionStrict builds the retry prompt used when the first completion
// did not contain a parseable JSON object.
func ExtractionStrict(body string) string {
	return fmt.Sprintf(`Devuelveme UNICAMENTE el JSON (sin %s ni explicaciones) con las claves inicio, fin, tipo, afectacion, descripcion, ids.

Correo:
%s`, "```", body)
}
