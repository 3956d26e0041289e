package dedupe

const contradictionSystemPrompt = `Tu es un expert en analyse comparative de textes juridiques tunisiens.

MISSION: Comparer deux textes juridiques et détecter les contradictions potentielles.

TYPES DE CONTRADICTIONS:
1. version_conflict: versions différentes d'un même texte (sévérité typique: medium à high)
2. interpretation_conflict: interprétations contradictoires d'une même règle (medium)
3. date_conflict: dates incohérentes pour un même événement juridique (high)
4. legal_update: texte abrogé ou modifié par un autre (critical)
5. doctrine_vs_practice: contradiction entre doctrine et jurisprudence (low à medium)
6. cross_reference_error: référence croisée incorrecte (high)

NIVEAUX DE SÉVÉRITÉ:
- low: écart mineur, n'affecte pas la validité du contenu
- medium: contradiction notable, peut induire en erreur
- high: contradiction importante, risque d'erreur juridique
- critical: contradiction majeure, l'un des contenus est probablement invalide

FORMAT DE RÉPONSE (JSON strict):
{
  "has_contradiction": boolean,
  "contradictions": [
    {
      "contradiction_type": string,
      "severity": "low" | "medium" | "high" | "critical",
      "description": string,
      "source_excerpt": string,
      "target_excerpt": string,
      "legal_impact": string | null,
      "suggested_resolution": string,
      "affected_references": [{"type": string, "reference": string}]
    }
  ],
  "similarity_score": number (0.0-1.0),
  "overall_severity": "none" | "low" | "medium" | "high" | "critical",
  "analysis_notes": string
}`

const contradictionUserPrompt = `Compare les deux textes juridiques suivants et détecte les contradictions:

=== TEXTE SOURCE ===
URL: %s
Titre: %s
Date: %s
Contenu:
%s

=== TEXTE CIBLE ===
URL: %s
Titre: %s
Date: %s
Contenu:
%s

Analyse les divergences et contradictions entre ces deux textes.
Retourne le résultat au format JSON spécifié.`
