package opentarget

// Open Targets GraphQLクエリドキュメント。
// 検索は常に先頭1件のみ要求し、複数ヒット時は最上位ランクを採用する
// （曖昧性解決やファジーマッチは行わない）。
const (
	// geneQuery は遺伝子名からEnsembl IDを解決する。
	geneQuery = `
    query findTarget($queryString: String!) {
      search(queryString: $queryString, entityNames: ["target"], page: { index: 0, size: 1 }) {
        hits { id }
      }
    }
    `

	// diseaseQuery は疾患名からEFO IDを解決する。
	diseaseQuery = `
    query findDisease($queryString: String!) {
      search(queryString: $queryString, entityNames: ["disease"], page: { index: 0, size: 1 }) {
        hits { id }
      }
    }
    `

	// targetDiseaseQuery は解決済みIDペアのエビデンスを取得する。
	targetDiseaseQuery = `
    query targetDiseaseEvidence($diseaseId: String!, $geneId: String!) {
      disease(efoId: $diseaseId) {
        id
        name
        evidences(ensemblIds: [$geneId]) {
          count
          rows {
            disease { id name }
            diseaseFromSource
            target { id approvedSymbol }
            mutatedSamples {
              functionalConsequence { id label }
              numberSamplesTested
              numberMutatedSamples
            }
            resourceScore
            significantDriverMethods
            cohortId
            cohortShortName
            cohortDescription
          }
        }
      }
    }
    `
)
