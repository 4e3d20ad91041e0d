package heuristics

import (
	"strings"
	"testing"
)

func TestSignatureMatching(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		signature string
		want      bool
	}{
		{"cloned contact", "Oi mãe, mudei de número. Me ajuda com um pix?", "CONTATO_CLONADO", true},
		{"cloned contact without ask", "mudei de número, salva aí", "CONTATO_CLONADO", false},
		{"code request", "me passa o código que chegou no seu celular", "PEDIDO_CODIGO", true},
		{"fake central", "Central de segurança: compra suspeita, preciso que confirme", "FALSA_CENTRAL", true},
		{"job fee", "vaga de emprego home office, só pagar a taxa de cadastro", "TRABALHO_TAXA", true},
		{"secrecy", "não conta pra ninguém, me faz um pix", "SIGILO", true},
	}
	catalog := DefaultSignatures()
	byName := make(map[string]SignatureSpec, len(catalog))
	for _, sig := range catalog {
		byName[sig.Name] = sig
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, ok := byName[tt.signature]
			if !ok {
				t.Fatalf("signature %s missing from catalog", tt.signature)
			}
			if got := sig.Matches(NewMessage(tt.text).Folded); got != tt.want {
				t.Errorf("Matches = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSignatureDetectorStacksMatches(t *testing.T) {
	detect := SignatureDetector(DefaultSignatures())
	// Cloned contact and secrecy both fire on the same message.
	d := detect(NewMessage("mudei de número, não conta pra ninguém, me faz um pix"))
	if got := d.Categories[CategorySocialEngineering]; got != 2*SignatureWeight {
		t.Errorf("ENGENHARIA_SOCIAL = %d, want %d", got, 2*SignatureWeight)
	}
	for _, reason := range d.Reasons {
		if !strings.Contains(reason, "Assinatura de golpe") {
			t.Errorf("unexpected reason %q", reason)
		}
	}
	if detect(NewMessage("bom dia, reunião às 10h")).Categories != nil {
		t.Error("neutral text matched a signature")
	}
}
